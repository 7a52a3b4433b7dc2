package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullManifest = `
[tool.poetry]
name = "eeg-models"
version = "0.1.0"
description = "Deep learning models for EEG decoding"
authors = ["Ildar Rakhmatulin <ildar@example.com>"]
readme = "README.md"
repository = "https://github.com/iparrondo/eeg-models"
keywords = ["eeg", "bci", "deep-learning"]
license = "MIT"

[tool.poetry.dependencies]
python = ">=3.8,<3.11"
torch = "^1.10.0"
numpy = "^1.21.4"
scipy = "^1.7.2"
scikit-learn = "^1.0.1"
braindecode = { version = "^0.5.1", optional = true, extras = ["moabb"] }

[tool.poetry.dev-dependencies]
black = "^21.9b0"
isort = "^5.9.3"
pytest = "^6.2.5"

[tool.black]
line-length = 88
target-version = ["py38"]

[tool.isort]
profile = "black"
src_paths = ["eeg_models", "tests"]
line_length = 88
lines_after_imports = 2

[build-system]
requires = ["poetry-core>=1.0.0"]
build-backend = "poetry.core.masonry.api"
`

func TestDecode_Full(t *testing.T) {
	m, err := DecodeString(fullManifest)
	require.NoError(t, err)

	p := m.Tool.Poetry
	require.NotNil(t, p)
	assert.Equal(t, "eeg-models", p.Name)
	assert.Equal(t, "0.1.0", p.Version)
	assert.Equal(t, []string{"Ildar Rakhmatulin <ildar@example.com>"}, p.Authors)
	assert.Equal(t, "README.md", p.Readme)
	assert.Equal(t, "MIT", p.License)

	require.Len(t, p.Dependencies, 6)
	py := p.Dependencies["python"]
	assert.Equal(t, ">=3.8,<3.11", py.Constraint)
	assert.False(t, py.Table())

	torch := p.Dependencies["torch"]
	assert.Equal(t, "^1.10.0", torch.Constraint)

	bd := p.Dependencies["braindecode"]
	assert.True(t, bd.Table())
	assert.Equal(t, "^0.5.1", bd.Constraint)
	assert.True(t, bd.Optional)
	assert.Equal(t, []string{"moabb"}, bd.Extras)

	require.Len(t, p.DevDependencies, 3)
	assert.Equal(t, "^21.9b0", p.DevDependencies["black"].Constraint)

	b := m.Tool.Black
	require.NotNil(t, b)
	require.NotNil(t, b.LineLength)
	assert.Equal(t, 88, *b.LineLength)
	assert.Equal(t, []string{"py38"}, b.TargetVersion)

	i := m.Tool.Isort
	require.NotNil(t, i)
	assert.Equal(t, "black", i.Profile)
	assert.Equal(t, []string{"eeg_models", "tests"}, i.SrcPaths)
	require.NotNil(t, i.LineLength)
	assert.Equal(t, 88, *i.LineLength)
	require.NotNil(t, i.LinesAfterImports)
	assert.Equal(t, 2, *i.LinesAfterImports)

	bs := m.BuildSystem
	require.NotNil(t, bs)
	assert.Equal(t, []string{"poetry-core>=1.0.0"}, bs.Requires)
	assert.Equal(t, "poetry.core.masonry.api", bs.BuildBackend)

	assert.Empty(t, m.UnknownKeys())
	assert.Empty(t, m.ForeignTables())
}

func TestDecode_MissingTables(t *testing.T) {
	m, err := DecodeString(`
[tool.poetry]
name = "bare"
version = "0.0.1"
`)
	require.NoError(t, err)
	assert.Nil(t, m.Tool.Black)
	assert.Nil(t, m.Tool.Isort)
	assert.Nil(t, m.BuildSystem)
	assert.Empty(t, m.Tool.Poetry.Dependencies)
}

func TestDecode_UnknownKeys(t *testing.T) {
	m, err := DecodeString(`
[tool.poetry]
name = "eeg-models"
version = "0.1.0"
licence = "MIT"

[tool.black]
line-length = 88
experimental-string-processing = true

[tool.mypy]
strict = true

[project]
name = "eeg-models"
`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tool.poetry.licence",
		"tool.black.experimental-string-processing",
	}, m.UnknownKeys())
	assert.ElementsMatch(t, []string{"tool.mypy", "project"}, m.ForeignTables())
}

func TestDecode_DependencyTableUnknownKeys(t *testing.T) {
	m, err := DecodeString(`
[tool.poetry.dependencies]
torch = { version = "^1.10.0", allow-prereleases = true }
`)
	require.NoError(t, err)
	d := m.Tool.Poetry.Dependencies["torch"]
	assert.Equal(t, "^1.10.0", d.Constraint)
	assert.Equal(t, []string{"allow-prereleases"}, d.UnknownKeys())
	assert.Empty(t, m.UnknownKeys())
}

func TestDecode_ParseError(t *testing.T) {
	_, err := DecodeString("[tool.poetry\nname = \"x\"\n")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, perr.Error(), "manifest:1:")
}

func TestDecode_BadDependencyShape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "integer value",
			input: "[tool.poetry.dependencies]\ntorch = 3\n",
			want:  "string or a table",
		},
		{
			name:  "version not a string",
			input: "[tool.poetry.dependencies]\ntorch = { version = 3 }\n",
			want:  "version must be a string",
		},
		{
			name:  "extras not an array",
			input: "[tool.poetry.dependencies]\ntorch = { version = \"^1.0\", extras = \"moabb\" }\n",
			want:  "extras must be an array",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"eeg-models", true},
		{"scikit_learn", true},
		{"Torch", true},
		{"a", true},
		{"numpy2", true},
		{"-torch", false},
		{"torch-", false},
		{"eeg models", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidName(tt.name), "name %q", tt.name)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Scikit_Learn", "scikit-learn"},
		{"scikit-learn", "scikit-learn"},
		{"ruamel.yaml", "ruamel-yaml"},
		{"torch", "torch"},
		{"A--B__c", "a-b-c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	m1, err := DecodeString(fullManifest)
	require.NoError(t, err)

	out, err := Format(m1)
	require.NoError(t, err)

	m2, err := Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, m1.Tool.Poetry, m2.Tool.Poetry)
	require.Equal(t, m1.Tool.Black, m2.Tool.Black)
	require.Equal(t, m1.Tool.Isort, m2.Tool.Isort)
	require.Equal(t, m1.BuildSystem, m2.BuildSystem)

	// Canonical form is a fixpoint.
	again, err := Format(m2)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

func TestEncode_TableOrder(t *testing.T) {
	m, err := DecodeString(fullManifest)
	require.NoError(t, err)

	out, err := Format(m)
	require.NoError(t, err)
	s := string(out)

	poetry := strings.Index(s, "[tool.poetry]")
	deps := strings.Index(s, "[tool.poetry.dependencies]")
	dev := strings.Index(s, "[tool.poetry.dev-dependencies]")
	black := strings.Index(s, "[tool.black]")
	isort := strings.Index(s, "[tool.isort]")
	build := strings.Index(s, "[build-system]")

	require.NotEqual(t, -1, poetry)
	require.NotEqual(t, -1, deps)
	require.NotEqual(t, -1, dev)
	require.NotEqual(t, -1, black)
	require.NotEqual(t, -1, isort)
	require.NotEqual(t, -1, build)
	assert.True(t, poetry < deps && deps < dev && dev < black && black < isort && isort < build,
		"tables out of canonical order:\n%s", s)

	// Dependency names come out sorted.
	braindecode := strings.Index(s, "braindecode")
	numpy := strings.Index(s, "numpy")
	torch := strings.Index(s, "torch =")
	assert.True(t, deps < braindecode && braindecode < numpy && numpy < torch,
		"dependencies out of sorted order:\n%s", s)
}

func TestWriteFile(t *testing.T) {
	m, err := DecodeString(fullManifest)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, WriteFile(path, m))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, got.Path())
	assert.Equal(t, m.Tool.Poetry, got.Tool.Poetry)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening manifest")
}
