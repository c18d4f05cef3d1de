package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cif-lang/go-cif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sample = `data_x
_a 1
_b 'text'
_c ?
_d '12'
loop_
_l
1 2
save_f
_e word
save_
data_y
_a 2.5
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFile writes content to a file in a temporary directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := writeFile(t, "cifdump.toml", `
format = "json"
indent = 4
frames = false
block = "quartz"
log_level = "debug"
`)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{Format: FormatJSON, Indent: 4, Frames: false, Block: "quartz", LogLevel: "debug"}, cfg)

	// Keys left out keep their defaults.
	path = writeFile(t, "partial.toml", `format = "json"`)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Indent)
	assert.True(t, cfg.Frames)
}

func TestLoadConfigErrors(t *testing.T) {
	f := func(name, content, expected string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "cifdump.toml", content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), expected)
		})
	}

	f("syntax", `format = `, "failed to parse config")
	f("format", `format = "xml"`, `unknown output format "xml"`)
	f("indent", `indent = 12`, "indent must be between 2 and 9, got 12")
	f("level", `log_level = "loud"`, `invalid log level "loud"`)

	absent := filepath.Join(t.TempDir(), "absent.toml")
	_, err := LoadConfig(absent)
	assert.EqualError(t, err, "config file not found: "+absent)
}

func TestWriteYAML(t *testing.T) {
	blocks, err := cif.ParseString(sample)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, blocks, DefaultConfig()))

	dec := yaml.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, map[string]any{
		"data_x": map[string]any{
			"_a":     1,
			"_b":     "text",
			"_c":     nil,
			"_d":     "12",
			"_l":     []any{1, 2},
			"save_f": map[string]any{"_e": "word"},
		},
	}, first)
	assert.Equal(t, map[string]any{"data_y": map[string]any{"_a": 2.5}}, second)
}

func TestWriteYAMLOrder(t *testing.T) {
	blocks, err := cif.ParseString("data_x\n_z 1\n_a 2\n_m 3\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, blocks, DefaultConfig()))
	assert.Equal(t, "data_x:\n  _z: 1\n  _a: 2\n  _m: 3\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	blocks, err := cif.ParseString(sample)
	require.NoError(t, err)

	cfg := DefaultConfig()
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, blocks, cfg))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, map[string]any{
		"name": "x",
		"tags": map[string]any{
			"_a": 1.0,
			"_b": "text",
			"_c": nil,
			"_d": "12",
			"_l": []any{1.0, 2.0},
		},
		"frames": map[string]any{
			"f": map[string]any{"_e": "word"},
		},
	}, first)
	assert.Equal(t, map[string]any{"name": "y", "tags": map[string]any{"_a": 2.5}}, second)

	// Without frames.
	cfg.Frames = false
	buf.Reset()
	require.NoError(t, writeJSON(&buf, blocks[:1], cfg))
	assert.NotContains(t, buf.String(), "frames")
}

func TestDump(t *testing.T) {
	path := writeFile(t, "sample.cif", sample)

	f := func(name string, files []string, cfg *Config, stdin string, expected string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			err := dump(strings.NewReader(stdin), &out, files, cfg, discardLogger())
			require.NoError(t, err)
			assert.Equal(t, expected, out.String())
		})
	}

	selectY := DefaultConfig()
	selectY.Block = "Y"
	f("select_block", []string{path}, selectY, "", "data_y:\n  _a: 2.5\n")
	f("stdin", nil, DefaultConfig(), "data_s\n_v 'a b'\n", "data_s:\n  _v: a b\n")
	f("dash", []string{"-"}, DefaultConfig(), "data_s\n_v 3\n", "data_s:\n  _v: 3\n")
	f("empty", []string{"-"}, DefaultConfig(), "# nothing\n", "")
}

func TestDumpErrors(t *testing.T) {
	path := writeFile(t, "sample.cif", sample)
	bad := writeFile(t, "bad.cif", "data_bad\nloop_\n_a\n_b\n1\n")

	f := func(name string, files []string, cfg *Config, expected string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			err := dump(strings.NewReader(""), io.Discard, files, cfg, discardLogger())
			require.Error(t, err)
			assert.EqualError(t, err, expected)
		})
	}

	missing := DefaultConfig()
	missing.Block = "z"
	f("block_not_found", []string{path}, missing, `no data block named "z"`)
	f("parse_error", []string{bad}, DefaultConfig(),
		bad+": error on line 6: not enough values in the last loop iteration: expected 2, got 1")

	// The underlying error keeps its type.
	err := dump(strings.NewReader(""), io.Discard, []string{bad}, DefaultConfig(), discardLogger())
	var cifErr *cif.Error
	require.ErrorAs(t, err, &cifErr)
	assert.Equal(t, cif.SyntaxError, cifErr.Kind)
}

func TestExecute(t *testing.T) {
	path := writeFile(t, "sample.cif", sample)
	config := writeFile(t, "cifdump.toml", "format = \"yaml\"\nframes = true\n")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--config", config, "--format", "json", "--no-frames", "--block", "x", "-v", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "x", got["name"])
	assert.NotContains(t, got, "frames")
	assert.Contains(t, errOut.String(), "parsed file")
}
