package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/iparrondo/eeg-models/pkg/manifest"
	"github.com/iparrondo/eeg-models/pkg/pep440"
)

// Rule is one named check over a decoded manifest.
type Rule struct {
	Code string
	Desc string
	fn   func(m *manifest.Manifest, dir string) []Diagnostic
}

// Rules returns the full rule set in code order, for help output.
func Rules() []Rule { return append([]Rule(nil), allRules...) }

var allRules = []Rule{
	{"EM001", "package name is a well-formed package name", checkName},
	{"EM002", "project version parses as a version string", checkVersion},
	{"EM003", "authors and maintainers use the \"Name <email>\" form", checkAuthors},
	{"EM004", "dependency constraints parse", checkConstraintSyntax},
	{"EM005", "dependency constraints admit at least one version", checkSatisfiable},
	{"EM006", "no two dependency keys normalize to the same package", checkDuplicateNames},
	{"EM007", "runtime and dev constraints on a package intersect", checkCrossTable},
	{"EM008", "interpreter constraint admits a released CPython", checkInterpreterReality},
	{"EM009", "runtime dependencies constrain the interpreter", checkInterpreterDeclared},
	{"EM010", "formatter and import-sorter agree on line length", checkLineLength},
	{"EM011", "build backend is a known backend", checkBuildBackend},
	{"EM012", "build-system requires entries are valid requirements", checkBuildRequires},
	{"EM013", "recognized tables contain only schema keys", checkUnknownKeys},
	{"EM014", "referenced readme exists", checkReadme},
}

func diag(code string, sev Severity, path, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Code: code, Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)}
}

// depTable pairs a dependency map with its key path segment so rules can walk
// both tables uniformly and deterministically.
type depTable struct {
	label string
	deps  map[string]manifest.Dependency
}

func depTables(p *manifest.Poetry) []depTable {
	return []depTable{
		{"dependencies", p.Dependencies},
		{"dev-dependencies", p.DevDependencies},
	}
}

func sortedDepNames(deps map[string]manifest.Dependency) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func depPath(table, name string) string {
	return "tool.poetry." + table + "." + name
}

func checkName(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return []Diagnostic{diag("EM001", Error, "tool.poetry", "manifest has no [tool.poetry] table")}
	}
	if p.Name == "" {
		return []Diagnostic{diag("EM001", Error, "tool.poetry.name", "package name is empty")}
	}
	if !manifest.ValidName(p.Name) {
		return []Diagnostic{diag("EM001", Error, "tool.poetry.name", "package name %q is not a valid package name", p.Name)}
	}
	return nil
}

func checkVersion(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	if p.Version == "" {
		return []Diagnostic{diag("EM002", Error, "tool.poetry.version", "project version is empty")}
	}
	if _, err := pep440.Parse(p.Version); err != nil {
		return []Diagnostic{diag("EM002", Error, "tool.poetry.version", "project version: %v", err)}
	}
	return nil
}

var authorPattern = regexp.MustCompile(`^[^<>]+ <[^<>@\s]+@[^<>@\s]+>$`)

func checkAuthors(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	var ds []Diagnostic
	for _, group := range []struct {
		key     string
		entries []string
	}{
		{"authors", p.Authors},
		{"maintainers", p.Maintainers},
	} {
		for i, entry := range group.entries {
			if !authorPattern.MatchString(entry) {
				ds = append(ds, diag("EM003", Warning,
					fmt.Sprintf("tool.poetry.%s[%d]", group.key, i),
					"%q is not in \"Name <email>\" form", entry))
			}
		}
	}
	return ds
}

func checkConstraintSyntax(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	var ds []Diagnostic
	for _, tbl := range depTables(p) {
		for _, name := range sortedDepNames(tbl.deps) {
			dep := tbl.deps[name]
			path := depPath(tbl.label, name)
			if dep.Constraint == "" {
				ds = append(ds, diag("EM004", Error, path, "dependency declares no version constraint"))
			} else if _, err := pep440.ParseSpecifiers(dep.Constraint); err != nil {
				ds = append(ds, diag("EM004", Error, path, "invalid constraint %q: %v", dep.Constraint, err))
			}
			if dep.Python != "" {
				if _, err := pep440.ParseSpecifiers(dep.Python); err != nil {
					ds = append(ds, diag("EM004", Error, path+".python", "invalid python marker %q: %v", dep.Python, err))
				}
			}
		}
	}
	return ds
}

func checkSatisfiable(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	var ds []Diagnostic
	for _, tbl := range depTables(p) {
		for _, name := range sortedDepNames(tbl.deps) {
			dep := tbl.deps[name]
			path := depPath(tbl.label, name)
			if ss, err := pep440.ParseSpecifiers(dep.Constraint); err == nil && ss.Empty() {
				ds = append(ds, diag("EM005", Error, path, "constraint %q admits no version", dep.Constraint))
			}
			if dep.Python != "" {
				if ss, err := pep440.ParseSpecifiers(dep.Python); err == nil && ss.Empty() {
					ds = append(ds, diag("EM005", Error, path+".python", "python marker %q admits no version", dep.Python))
				}
			}
		}
	}
	return ds
}

func checkDuplicateNames(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	var ds []Diagnostic
	for _, tbl := range depTables(p) {
		byNorm := make(map[string][]string)
		for _, name := range sortedDepNames(tbl.deps) {
			norm := manifest.NormalizeName(name)
			byNorm[norm] = append(byNorm[norm], name)
		}
		norms := make([]string, 0, len(byNorm))
		for norm := range byNorm {
			norms = append(norms, norm)
		}
		sort.Strings(norms)
		for _, norm := range norms {
			if names := byNorm[norm]; len(names) > 1 {
				ds = append(ds, diag("EM006", Error, "tool.poetry."+tbl.label,
					"keys %s all name the package %q", quoteJoin(names), norm))
			}
		}
	}
	return ds
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

// constraintFor returns the first parseable constraint for a normalized
// package name within one table.
func constraintFor(deps map[string]manifest.Dependency, norm string) (string, pep440.SpecifierSet, bool) {
	for _, name := range sortedDepNames(deps) {
		if manifest.NormalizeName(name) != norm {
			continue
		}
		dep := deps[name]
		if ss, err := pep440.ParseSpecifiers(dep.Constraint); err == nil {
			return dep.Constraint, ss, true
		}
	}
	return "", pep440.SpecifierSet{}, false
}

func checkCrossTable(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	norms := make(map[string]bool)
	for _, name := range sortedDepNames(p.Dependencies) {
		norms[manifest.NormalizeName(name)] = true
	}
	var shared []string
	for _, name := range sortedDepNames(p.DevDependencies) {
		if norm := manifest.NormalizeName(name); norms[norm] && !contains(shared, norm) {
			shared = append(shared, norm)
		}
	}

	var ds []Diagnostic
	for _, norm := range shared {
		runRaw, runSet, ok := constraintFor(p.Dependencies, norm)
		if !ok {
			continue
		}
		devRaw, devSet, ok := constraintFor(p.DevDependencies, norm)
		if !ok {
			continue
		}
		if pep440.Intersect(runSet, devSet).Empty() {
			ds = append(ds, diag("EM007", Error, "tool.poetry.dev-dependencies."+norm,
				"%q is constrained to %q at runtime and %q in dev-dependencies; no version satisfies both",
				norm, runRaw, devRaw))
		}
	}
	return ds
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// interpreterConstraint finds the runtime "python" entry by normalized name.
func interpreterConstraint(p *manifest.Poetry) (manifest.Dependency, string, bool) {
	for _, name := range sortedDepNames(p.Dependencies) {
		if manifest.NormalizeName(name) == "python" {
			return p.Dependencies[name], depPath("dependencies", name), true
		}
	}
	return manifest.Dependency{}, "", false
}

func checkInterpreterReality(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	dep, path, ok := interpreterConstraint(p)
	if !ok {
		return nil
	}
	ss, err := pep440.ParseSpecifiers(dep.Constraint)
	if err != nil {
		return nil // EM004's finding
	}
	if len(AdmittedInterpreters(ss)) == 0 {
		return []Diagnostic{diag("EM008", Error, path,
			"constraint %q admits no released CPython interpreter", dep.Constraint)}
	}
	return nil
}

func checkInterpreterDeclared(m *manifest.Manifest, _ string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil {
		return nil
	}
	if _, _, ok := interpreterConstraint(p); ok {
		return nil
	}
	return []Diagnostic{diag("EM009", Warning, "tool.poetry.dependencies",
		"runtime dependencies do not constrain the python interpreter")}
}

func checkLineLength(m *manifest.Manifest, _ string) []Diagnostic {
	b, i := m.Tool.Black, m.Tool.Isort
	if b == nil || i == nil || b.LineLength == nil || i.LineLength == nil {
		return nil
	}
	if *b.LineLength == *i.LineLength {
		return nil
	}
	return []Diagnostic{diag("EM010", Warning, "tool.isort.line_length",
		"import-sorter line_length %d does not match formatter line-length %d",
		*i.LineLength, *b.LineLength)}
}

var knownBackends = map[string]bool{
	"poetry.core.masonry.api": true,
	"poetry.masonry.api":      true,
	"setuptools.build_meta":   true,
	"flit_core.buildapi":      true,
	"hatchling.build":         true,
}

func checkBuildBackend(m *manifest.Manifest, _ string) []Diagnostic {
	bs := m.BuildSystem
	if bs == nil {
		return nil
	}
	if bs.BuildBackend == "" {
		return []Diagnostic{diag("EM011", Warning, "build-system.build-backend",
			"build-system declares no build-backend")}
	}
	if !knownBackends[bs.BuildBackend] {
		return []Diagnostic{diag("EM011", Warning, "build-system.build-backend",
			"unknown build backend %q", bs.BuildBackend)}
	}
	return nil
}

func checkBuildRequires(m *manifest.Manifest, _ string) []Diagnostic {
	bs := m.BuildSystem
	if bs == nil {
		return nil
	}
	var ds []Diagnostic
	for i, req := range bs.Requires {
		path := fmt.Sprintf("build-system.requires[%d]", i)
		_, ss, err := parseRequirement(req)
		if err != nil {
			ds = append(ds, diag("EM012", Error, path, "requirement %q: %v", req, err))
			continue
		}
		if ss != nil && ss.Empty() {
			ds = append(ds, diag("EM012", Error, path, "requirement %q admits no version", req))
		}
	}
	return ds
}

// parseRequirement splits a build requirement of the form
// "name", "name[extras]" or "name>=1.0,<2.0" into its parts.
func parseRequirement(s string) (string, *pep440.SpecifierSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, fmt.Errorf("empty requirement")
	}
	i := 0
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	name := s[:i]
	if !manifest.ValidName(name) {
		return "", nil, fmt.Errorf("invalid package name %q", name)
	}
	rest := strings.TrimSpace(s[i:])
	if rest != "" && rest[0] == '[' {
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			return "", nil, fmt.Errorf("unterminated extras list")
		}
		rest = strings.TrimSpace(rest[j+1:])
	}
	if rest == "" {
		return name, nil, nil
	}
	ss, err := pep440.ParseSpecifiers(rest)
	if err != nil {
		return "", nil, err
	}
	return name, &ss, nil
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.':
		return true
	}
	return false
}

func checkUnknownKeys(m *manifest.Manifest, _ string) []Diagnostic {
	var ds []Diagnostic
	for _, key := range m.UnknownKeys() {
		ds = append(ds, diag("EM013", Warning, key, "key is not part of the manifest schema"))
	}
	if p := m.Tool.Poetry; p != nil {
		for _, tbl := range depTables(p) {
			for _, name := range sortedDepNames(tbl.deps) {
				for _, key := range tbl.deps[name].UnknownKeys() {
					ds = append(ds, diag("EM013", Warning, depPath(tbl.label, name)+"."+key,
						"key is not part of the manifest schema"))
				}
			}
		}
	}
	return ds
}

func checkReadme(m *manifest.Manifest, dir string) []Diagnostic {
	p := m.Tool.Poetry
	if p == nil || p.Readme == "" || dir == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, p.Readme)); os.IsNotExist(err) {
		return []Diagnostic{diag("EM014", Warning, "tool.poetry.readme",
			"readme %q does not exist", p.Readme)}
	}
	return nil
}
