package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ParseError describes a syntax error with its position in the source.
type ParseError struct {
	Path string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	at := e.Path
	if at == "" {
		at = "manifest"
	}
	return fmt.Sprintf("%s:%d:%d: %s", at, e.Line, e.Col, e.Msg)
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	m.path = path
	return m, nil
}

// Decode reads a manifest from r. Syntax errors come back as *ParseError;
// keys outside the schema are recorded on the Manifest, not rejected.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		var terr toml.ParseError
		if errors.As(err, &terr) {
			// Some decoder errors carry their cause privately and leave
			// Message empty; Error() always renders it.
			msg := terr.Message
			if msg == "" {
				msg = terr.Error()
			}
			return nil, &ParseError{
				Line: terr.Position.Line,
				Col:  terr.Position.Col,
				Msg:  msg,
			}
		}
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	m.classifyUndecoded(md.Undecoded())
	return &m, nil
}

// DecodeString decodes a manifest held in memory.
func DecodeString(s string) (*Manifest, error) {
	return Decode(strings.NewReader(s))
}

// classifyUndecoded splits the keys the schema did not consume into unknown
// keys inside recognized tables and whole foreign tables. Keys under the
// dependency tables are skipped: the Dependency unmarshaler owns those and
// records its own unknowns.
func (m *Manifest) classifyUndecoded(keys []toml.Key) {
	seen := make(map[string]bool)
	for _, key := range keys {
		if len(key) == 0 {
			continue
		}
		k := key.String()
		switch {
		case underTable(k, "tool.poetry.dependencies"),
			underTable(k, "tool.poetry.dev-dependencies"):
			continue
		case underTable(k, "tool.poetry"),
			underTable(k, "tool.black"),
			underTable(k, "tool.isort"),
			underTable(k, "build-system"):
			m.unknownKeys = append(m.unknownKeys, k)
		case len(key) >= 2 && key[0] == "tool":
			t := "tool." + key[1]
			if !seen[t] {
				seen[t] = true
				m.foreignTables = append(m.foreignTables, t)
			}
		default:
			if !seen[key[0]] {
				seen[key[0]] = true
				m.foreignTables = append(m.foreignTables, key[0])
			}
		}
	}
}

func underTable(key, table string) bool {
	return key == table || strings.HasPrefix(key, table+".")
}
