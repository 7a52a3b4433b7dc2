package manifest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
)

// Encode writes the canonical rendering of m: tables in schema order,
// dependency names sorted, no indentation. Decoding the output yields a
// manifest equal to m, so Encode(Decode(x)) is a fixpoint after one round.
func Encode(w io.Writer, m *Manifest) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}

// Format returns the canonical rendering as bytes.
func Format(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the canonical rendering to path atomically. Readers
// never observe a half-written manifest.
func WriteFile(path string, m *Manifest) error {
	data, err := Format(m)
	if err != nil {
		return err
	}
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("creating pending file: %w", err)
	}
	defer pf.Cleanup()
	if _, err := pf.Write(data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}
