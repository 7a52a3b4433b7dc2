package lint

import "github.com/iparrondo/eeg-models/pkg/pep440"

// cpythonSeries lists every CPython release line together with its highest
// published micro release. Snapshot data; refresh when new releases ship.
// An interpreter constraint that matches none of these versions cannot be
// installed anywhere, which is what EM008 reports.
var cpythonSeries = []struct {
	major, minor, lastMicro int
}{
	{2, 7, 18},
	{3, 0, 1},
	{3, 1, 5},
	{3, 2, 6},
	{3, 3, 7},
	{3, 4, 10},
	{3, 5, 10},
	{3, 6, 15},
	{3, 7, 17},
	{3, 8, 20},
	{3, 9, 23},
	{3, 10, 18},
	{3, 11, 13},
	{3, 12, 11},
	{3, 13, 7},
}

var interpreterReleases = func() []pep440.Version {
	var out []pep440.Version
	for _, s := range cpythonSeries {
		for micro := 0; micro <= s.lastMicro; micro++ {
			out = append(out, pep440.Version{Release: []int{s.major, s.minor, micro}})
		}
	}
	return out
}()

// AdmittedInterpreters returns the released CPython versions the constraint
// admits, in release order.
func AdmittedInterpreters(ss pep440.SpecifierSet) []pep440.Version {
	var out []pep440.Version
	for _, v := range interpreterReleases {
		if ss.Match(v) {
			out = append(out, v)
		}
	}
	return out
}
