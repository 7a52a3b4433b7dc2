package manifest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dependency is one entry in a dependency table. The manifest allows two
// shapes for the value: a bare constraint string
//
//	torch = ">=1.21.4,<2.0.0"
//
// or an inline table carrying the constraint plus qualifiers
//
//	torch = { version = ">=1.21.4", python = ">=3.8", optional = true }
//
// Both decode into the same struct; Table reports which shape was read so
// Encode can round-trip the original form.
type Dependency struct {
	Constraint string
	Python     string
	Optional   bool
	Extras     []string

	table   bool
	unknown []string
}

// Table reports whether the dependency was written in table form.
func (d Dependency) Table() bool { return d.table }

// UnknownKeys lists table keys the schema does not define.
func (d Dependency) UnknownKeys() []string { return d.unknown }

// Dep builds a string-form dependency; used by tests and programmatic edits.
func Dep(constraint string) Dependency {
	return Dependency{Constraint: constraint}
}

// UnmarshalTOML accepts either the string or the table form.
func (d *Dependency) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		d.Constraint = v
		return nil
	case map[string]interface{}:
		d.table = true
		for _, key := range sortedKeys(v) {
			val := v[key]
			switch key {
			case "version":
				s, ok := val.(string)
				if !ok {
					return fmt.Errorf("dependency version must be a string, got %T", val)
				}
				d.Constraint = s
			case "python":
				s, ok := val.(string)
				if !ok {
					return fmt.Errorf("dependency python marker must be a string, got %T", val)
				}
				d.Python = s
			case "optional":
				b, ok := val.(bool)
				if !ok {
					return fmt.Errorf("dependency optional flag must be a boolean, got %T", val)
				}
				d.Optional = b
			case "extras":
				xs, ok := val.([]interface{})
				if !ok {
					return fmt.Errorf("dependency extras must be an array, got %T", val)
				}
				for _, x := range xs {
					s, ok := x.(string)
					if !ok {
						return fmt.Errorf("dependency extras must be strings, got %T", x)
					}
					d.Extras = append(d.Extras, s)
				}
			default:
				d.unknown = append(d.unknown, key)
			}
		}
		return nil
	default:
		return fmt.Errorf("dependency must be a string or a table, got %T", data)
	}
}

// MarshalTOML writes the dependency back in the shape it was read in:
// a quoted string, or an inline table with keys in schema order.
func (d Dependency) MarshalTOML() ([]byte, error) {
	if !d.table {
		return []byte(strconv.Quote(d.Constraint)), nil
	}
	var parts []string
	if d.Constraint != "" {
		parts = append(parts, "version = "+strconv.Quote(d.Constraint))
	}
	if d.Python != "" {
		parts = append(parts, "python = "+strconv.Quote(d.Python))
	}
	if d.Optional {
		parts = append(parts, "optional = true")
	}
	if len(d.Extras) > 0 {
		quoted := make([]string, len(d.Extras))
		for i, x := range d.Extras {
			quoted[i] = strconv.Quote(x)
		}
		parts = append(parts, "extras = ["+strings.Join(quoted, ", ")+"]")
	}
	return []byte("{ " + strings.Join(parts, ", ") + " }"), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
