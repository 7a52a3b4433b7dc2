// Package manifest models the project manifest (pyproject.toml, Poetry
// layout): identity metadata, dependency tables, formatter and import-sorter
// settings, and the build-system declaration. Decoding is strict: keys the
// schema does not know are recorded and surfaced by the linter rather than
// silently dropped.
package manifest

import (
	"regexp"
	"strings"
)

// Manifest is a decoded project manifest. Field order mirrors the canonical
// file layout written by Encode.
type Manifest struct {
	Tool        Tool         `toml:"tool"`
	BuildSystem *BuildSystem `toml:"build-system,omitempty"`

	path          string
	unknownKeys   []string
	foreignTables []string
}

// Tool is the [tool.*] namespace subset the schema recognizes.
type Tool struct {
	Poetry *Poetry `toml:"poetry,omitempty"`
	Black  *Black  `toml:"black,omitempty"`
	Isort  *Isort  `toml:"isort,omitempty"`
}

// Poetry carries the project identity and the dependency tables.
type Poetry struct {
	Name          string   `toml:"name"`
	Version       string   `toml:"version"`
	Description   string   `toml:"description,omitempty"`
	Authors       []string `toml:"authors,omitempty"`
	Maintainers   []string `toml:"maintainers,omitempty"`
	Readme        string   `toml:"readme,omitempty"`
	Repository    string   `toml:"repository,omitempty"`
	Documentation string   `toml:"documentation,omitempty"`
	Keywords      []string `toml:"keywords,omitempty"`
	License       string   `toml:"license,omitempty"`

	Dependencies    map[string]Dependency `toml:"dependencies,omitempty"`
	DevDependencies map[string]Dependency `toml:"dev-dependencies,omitempty"`
}

// Black is the formatter configuration table. Numeric fields are pointers
// so an absent key is distinguishable from an explicit zero.
type Black struct {
	LineLength    *int     `toml:"line-length,omitempty"`
	TargetVersion []string `toml:"target-version,omitempty"`
}

// Isort is the import-sorter configuration table.
type Isort struct {
	SrcPaths          []string `toml:"src_paths,omitempty"`
	Profile           string   `toml:"profile,omitempty"`
	LineLength        *int     `toml:"line_length,omitempty"`
	LinesAfterImports *int     `toml:"lines_after_imports,omitempty"`
}

// BuildSystem is the [build-system] table: build-time requirements plus the
// backend identifier.
type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
}

// Path returns the file the manifest was loaded from, or "" when it was
// decoded from a reader.
func (m *Manifest) Path() string { return m.path }

// UnknownKeys lists keys found inside recognized tables that the schema does
// not define, in file order.
func (m *Manifest) UnknownKeys() []string { return m.unknownKeys }

// ForeignTables lists top-level or [tool.*] tables outside the schema.
// These are legal in a manifest (other tools own them) and only reported.
func (m *Manifest) ForeignTables() []string { return m.foreignTables }

var namePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidName reports whether s is a well-formed package name (PEP 508 subset:
// alphanumerics, dots, underscores and hyphens, starting and ending with an
// alphanumeric).
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

var nameRuns = regexp.MustCompile(`[-_.]+`)

// NormalizeName canonicalizes a package name per PEP 503: lowercase with
// runs of separators collapsed to a single hyphen. "Scikit_Learn" and
// "scikit-learn" normalize to the same package.
func NormalizeName(s string) string {
	return strings.ToLower(nameRuns.ReplaceAllString(s, "-"))
}
