package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/stfkit/pkg/stf"
	"github.com/ssargent/stfkit/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, table *stf.Table) string {
	t.Helper()
	data, err := stf.Encode(table)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "strings.stf")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func sampleTable() *stf.Table {
	return &stf.Table{Version: 1, NextUID: 3, Entries: []stf.StringEntry{
		stf.NewEntry("menu.start", "Start Game"),
		stf.NewEntry("menu.quit", "Quit"),
	}}
}

func TestOpenSave(t *testing.T) {
	path := writeTable(t, sampleTable())

	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path())
	assert.Equal(t, 2, doc.Len())
	assert.False(t, doc.Dirty())

	require.NoError(t, doc.SetValue(1, "Exit"))
	assert.True(t, doc.Dirty())
	require.NoError(t, doc.Save())
	assert.False(t, doc.Dirty())

	reopened, err := Open(path)
	require.NoError(t, err)
	e, ok := reopened.Get("menu.quit")
	require.True(t, ok)
	assert.Equal(t, "Exit", e.Value.String())
	assert.Equal(t, uint8(1), reopened.Table().Version, "version passes through")
	assert.Equal(t, uint32(3), reopened.Table().NextUID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.stf"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.stf")
	require.NoError(t, os.WriteFile(bad, []byte("PK\x03\x04"), 0644))
	_, err = Open(bad)
	assert.ErrorIs(t, err, stf.ErrBadMagic)
}

func TestSaveAs(t *testing.T) {
	doc := New(nil)
	assert.ErrorIs(t, doc.Save(), ErrNoPath)
	assert.ErrorIs(t, doc.Reload(), ErrNoPath)

	doc.Set("title", "Hello")
	target := filepath.Join(t.TempDir(), "new.stf")
	require.NoError(t, doc.SaveAs(target))
	assert.Equal(t, target, doc.Path())
	assert.False(t, doc.Dirty())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	table, err := stf.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), table.NextUID)
	assert.Equal(t, "title", table.Entries[0].ID)

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestSaveKeepsFileMode(t *testing.T) {
	path := writeTable(t, sampleTable())
	require.NoError(t, os.Chmod(path, 0600))

	doc, err := Open(path)
	require.NoError(t, err)
	doc.Set("menu.options", "Options")
	require.NoError(t, doc.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRevert(t *testing.T) {
	path := writeTable(t, sampleTable())
	doc, err := Open(path)
	require.NoError(t, err)

	doc.Add()
	require.NoError(t, doc.Delete(0))
	assert.Equal(t, 2, doc.Len())
	assert.True(t, doc.CanUndo())

	require.NoError(t, doc.Revert())
	assert.False(t, doc.Dirty())
	assert.False(t, doc.CanUndo())
	assert.Equal(t, "menu.start", doc.Entries()[0].ID)
}

func TestLoad(t *testing.T) {
	doc := New(sampleTable())
	doc.Add()

	data, err := stf.Encode(&stf.Table{Version: 9, NextUID: 1})
	require.NoError(t, err)
	require.NoError(t, doc.Load(data))
	assert.Zero(t, doc.Len())
	assert.Equal(t, uint8(9), doc.Table().Version)
	assert.False(t, doc.CanUndo())

	assert.Error(t, doc.Load([]byte{0xCD, 0xAB, 0x00}))
	assert.Equal(t, uint8(9), doc.Table().Version, "failed load leaves the table alone")
}

func TestSnapshotsAreIndependent(t *testing.T) {
	table := sampleTable()
	doc := New(table)
	table.Entries[0].ID = "changed outside"
	assert.Equal(t, "menu.start", doc.Entries()[0].ID)

	snap := doc.Table()
	snap.Entries[0].Value[0] = 'X'
	assert.Equal(t, "Start Game", doc.Entries()[0].Value.String())
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewPebbleStore(t.TempDir(), nil)
	require.NoError(t, err)
	defer backend.Close()

	path := writeTable(t, sampleTable())
	doc, err := Open(path)
	require.NoError(t, err)

	doc.Set("menu.options", "Options")
	id, err := doc.Backup(ctx, backend)
	require.NoError(t, err)
	assert.True(t, doc.Dirty(), "backup does not save")

	require.NoError(t, doc.Revert())
	assert.Equal(t, 2, doc.Len())

	require.NoError(t, doc.Restore(ctx, backend, id))
	assert.Equal(t, 3, doc.Len())
	assert.True(t, doc.Dirty())
	_, ok := doc.Get("menu.options")
	assert.True(t, ok)

	err = doc.Restore(ctx, backend, ksuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
