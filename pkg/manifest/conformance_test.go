package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iparrondo/eeg-models/pkg/testutil"
)

// TestDecode_TomllibConformance cross-checks the decoder against CPython's
// tomllib: both must agree on which documents are well-formed TOML. Cases
// keep the manifest shape valid so only syntax is under test.
func TestDecode_TomllibConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker-based conformance test in short mode")
	}
	if err := testutil.Setup(context.Background()); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(testutil.Teardown)

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "minimal manifest",
			doc: `[tool.poetry]
name = "eeg-models"
version = "0.1.0"

[tool.poetry.dependencies]
python = ">=3.8,<3.11"
`,
		},
		{
			name: "literal strings",
			doc: `[tool.poetry]
name = 'eeg-models'
version = '0.1.0'

[tool.poetry.dependencies]
numpy = '^1.21.4'
`,
		},
		{
			name: "multiline array with trailing comma",
			doc: `[tool.poetry]
name = "eeg-models"
version = "0.1.0"
authors = [
    "Ada Lovelace <ada@example.org>",
    "Grace Hopper <grace@example.org>",
]
`,
		},
		{
			name: "inline table dependency",
			doc: `[tool.poetry]
name = "eeg-models"
version = "0.1.0"

[tool.poetry.dependencies]
braindecode = { version = "^0.5.1", optional = true, extras = ["moabb"] }
`,
		},
		{
			name: "non-ascii string",
			doc: `[tool.poetry]
name = "eeg-models"
version = "0.1.0"
description = "EEG décodage"
`,
		},
		{
			name: "comments and blank lines",
			doc: `# build metadata
[tool.poetry]

name = "eeg-models" # project name
version = "0.1.0"
`,
		},
		{
			name: "unterminated string",
			doc: `[tool.poetry]
name = "eeg-models
version = "0.1.0"
`,
		},
		{
			name: "duplicate key",
			doc: `[tool.poetry]
name = "eeg-models"
name = "eeg-models"
`,
		},
		{
			name: "redefined table",
			doc: `[tool.poetry]
name = "eeg-models"

[tool.poetry]
version = "0.1.0"
`,
		},
		{
			name: "invalid escape",
			doc: `[tool.poetry]
name = "eeg\qmodels"
`,
		},
		{
			name: "missing value",
			doc: `[tool.poetry]
name =
`,
		},
		{
			name: "inline table trailing comma",
			doc: `[tool.poetry.dependencies]
numpy = { version = "^1.21.4", }
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, output, err := testutil.ParseTOML(tt.doc)
			require.NoError(t, err)

			_, derr := DecodeString(tt.doc)
			if ok {
				assert.NoError(t, derr, "tomllib accepts this document")
			} else {
				assert.Error(t, derr, "tomllib rejects this document:\n%s", output)
			}
		})
	}
}
