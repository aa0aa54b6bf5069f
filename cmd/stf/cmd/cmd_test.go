package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/ssargent/stfkit/pkg/config"
	"github.com/ssargent/stfkit/pkg/document"
	"github.com/ssargent/stfkit/pkg/stf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag back to its default so runs do not leak into
// each other through the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(rootCmd) })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--config", configPath, "--log-level", "error"}, args...))

	err := rootCmd.Execute()
	resetFlags(rootCmd)
	return buf.String(), err
}

// testConfig writes a config keeping backups under a temp dir.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	data, err := stf.Encode(&stf.Table{
		Version: 1,
		NextUID: 3,
		Entries: []stf.StringEntry{
			stf.NewEntry("greeting", "Hello"),
			stf.NewEntry("farewell", "Goodbye"),
		},
	})
	require.NoError(t, err)
	path := filepath.Join(dir, "sample.stf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPutGetDelete(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "new.stf")

	_, err := execute(t, cfg, "put", file, "greeting", "Hello")
	require.Error(t, err)

	out, err := execute(t, cfg, "put", file, "greeting", "Hello", "--create")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 'greeting'")

	out, err = execute(t, cfg, "get", file, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)

	out, err = execute(t, cfg, "put", file, "greeting", "Hi")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 'greeting'")

	out, err = execute(t, cfg, "get", file, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hi\n", out)

	_, err = execute(t, cfg, "delete", file, "greeting")
	require.NoError(t, err)

	_, err = execute(t, cfg, "get", file, "greeting")
	assert.ErrorIs(t, err, document.ErrIDNotFound)

	_, err = execute(t, cfg, "delete", file, "greeting")
	assert.ErrorIs(t, err, document.ErrIDNotFound)
}

func TestDump(t *testing.T) {
	cfg := testConfig(t)
	file := writeSample(t, t.TempDir())

	out, err := execute(t, cfg, "dump", file)
	require.NoError(t, err)
	assert.Contains(t, out, "version 1, next uid 3, 2 entries")
	assert.Contains(t, out, "greeting")
	assert.Contains(t, out, "Goodbye")

	out, err = execute(t, cfg, "dump", file, "--format", "json")
	require.NoError(t, err)
	var view stf.TableView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, []stf.EntryView{
		{ID: "greeting", Value: "Hello"},
		{ID: "farewell", Value: "Goodbye"},
	}, view.Entries)

	out, err = execute(t, cfg, "dump", file, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "next_uid: 3")
	assert.Contains(t, out, "id: greeting")

	_, err = execute(t, cfg, "dump", file, "--format", "xml")
	assert.Error(t, err)
}

func TestDumpBuildRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	file := writeSample(t, dir)

	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			out, err := execute(t, cfg, "dump", file, "--format", format)
			require.NoError(t, err)
			view := filepath.Join(dir, "sample."+format)
			require.NoError(t, os.WriteFile(view, []byte(out), 0o644))

			rebuilt := filepath.Join(dir, "rebuilt-"+format+".stf")
			out, err = execute(t, cfg, "build", view, rebuilt)
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote 2 entries")

			want, err := os.ReadFile(file)
			require.NoError(t, err)
			got, err := os.ReadFile(rebuilt)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestBuildWarnsOnNarrowing(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "wide.yaml")
	require.NoError(t, os.WriteFile(in, []byte("version: 1\nnext_uid: 2\nentries:\n  - id: Łx\n    value: v\n"), 0o644))
	out := filepath.Join(dir, "wide.stf")

	log, err := execute(t, cfg, "build", in, out)
	require.NoError(t, err)
	assert.Contains(t, log, "stored as 0x41")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	table, err := stf.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Ax", table.Entries[0].ID)
}

func TestInspect(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	file := writeSample(t, dir)

	out, err := execute(t, cfg, "inspect", file, "--records")
	require.NoError(t, err)
	assert.Contains(t, out, "strings:     2")
	assert.Contains(t, out, "values:      offset 13")
	assert.Contains(t, out, "value records:")
	assert.Contains(t, out, "no problems found")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	padded := filepath.Join(dir, "padded.stf")
	require.NoError(t, os.WriteFile(padded, append(data, 0, 0, 0), 0o644))

	out, err = execute(t, cfg, "inspect", padded)
	require.NoError(t, err)
	assert.Contains(t, out, "3 bytes follow the last id record")

	out, err = execute(t, cfg, "inspect", file, "--format", "json")
	require.NoError(t, err)
	var report stf.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, uint32(2), report.NumStrings)
}

func TestValidate(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	good := writeSample(t, dir)
	bad := filepath.Join(dir, "bad.stf")
	require.NoError(t, os.WriteFile(bad, []byte{0x50, 0x4B, 0x03, 0x04}, 0o644))
	wide := filepath.Join(dir, "wide.yaml")
	require.NoError(t, os.WriteFile(wide, []byte("entries:\n  - id: Łx\n    value: v\n"), 0o644))

	out, err := execute(t, cfg, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good+": 2 entries")

	out, err = execute(t, cfg, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "FAIL "+bad)
	assert.Contains(t, out, "bad magic")

	out, err = execute(t, cfg, "validate", good, wide)
	require.NoError(t, err)
	assert.Contains(t, out, "WARN "+wide)
	assert.Contains(t, out, "does not fit in one byte")

	_, err = execute(t, cfg, "validate", "--strict", good, wide)
	assert.Error(t, err)
}

func TestValidateFiles_Order(t *testing.T) {
	dir := t.TempDir()
	good := writeSample(t, dir)
	paths := []string{good, filepath.Join(dir, "missing.stf"), good}

	results := validateFiles(paths)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, paths[i], r.path)
	}
	assert.NoError(t, results[0].err)
	assert.Error(t, results[1].err)
	assert.Equal(t, 2, results[2].entries)
}

func TestBackupCommands(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	file := writeSample(t, dir)

	out, err := execute(t, cfg, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No backups")

	out, err = execute(t, cfg, "backup", "create", file)
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.NotEmpty(t, fields)
	id := fields[len(fields)-1]

	out, err = execute(t, cfg, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	restored := filepath.Join(dir, "restored.stf")
	out, err = execute(t, cfg, "backup", "restore", id, restored)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 entries)")

	want, err := os.ReadFile(file)
	require.NoError(t, err)
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A damaged target is overwritten, not parsed.
	require.NoError(t, os.WriteFile(file, []byte("garbage"), 0o644))
	out, err = execute(t, cfg, "backup", "restore", id, file)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 entries)")
	got, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = execute(t, cfg, "backup", "delete", id)
	require.NoError(t, err)

	_, err = execute(t, cfg, "backup", "delete", id)
	assert.Error(t, err)

	_, err = execute(t, cfg, "backup", "restore", "not-an-id", restored)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	e, err := loadEnv(filepath.Join(t.TempDir(), "missing.yaml"), "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", e.cfg.Logging.Level)
	assert.Equal(t, 20, e.cfg.Editor.PageSize)

	_, err = loadEnv(filepath.Join(t.TempDir(), "missing.yaml"), "loud")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: floppy\n"), 0o600))
	_, err = loadEnv(path, "")
	assert.ErrorContains(t, err, "floppy")
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		flag, path, want string
		wantErr          bool
	}{
		{"", "a.json", formatJSON, false},
		{"", "a.JSON", formatJSON, false},
		{"", "a.yaml", formatYAML, false},
		{"", "-", formatYAML, false},
		{"yml", "a.json", formatYAML, false},
		{"JSON", "", formatJSON, false},
		{"table", "", formatTable, false},
		{"csv", "", "", true},
	}
	for _, tt := range tests {
		got, err := formatFor(tt.flag, tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.flag)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.flag, tt.path)
	}
}
