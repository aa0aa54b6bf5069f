// Package document is the editing layer over the stf codec. A Document holds
// one decoded table together with its file path, edit history and dirty
// state, and converts to and from bytes only through stf.Decode and
// stf.Encode.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/stfkit/pkg/logging"
	"github.com/ssargent/stfkit/pkg/stf"
	"github.com/ssargent/stfkit/pkg/storage"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateID is returned when an edit would give two rows the same
	// non-empty id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrRowOutOfRange is returned for a row number outside the table.
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrIDNotFound is returned when no row has the requested id.
	ErrIDNotFound = errors.New("id not found")

	// ErrNoPath is returned by Save and Reload on a document never saved.
	ErrNoPath = errors.New("document has no path")
)

// DefaultNewEntryPrefix is the id given to rows created by Add.
const DefaultNewEntryPrefix = "new_entry"

// edit is one undoable change to the entry list.
type edit struct {
	before []stf.StringEntry
	after  []stf.StringEntry
}

// Document is safe for concurrent use.
type Document struct {
	mu     sync.Mutex
	path   string
	table  *stf.Table
	undo   []edit
	redo   []edit
	dirty  bool
	codec  *stf.Codec
	logger *zap.Logger
	prefix string
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used by the document and its codec.
func WithLogger(l *zap.Logger) Option {
	return func(d *Document) {
		d.logger = logging.OrNop(l)
		d.codec = stf.NewCodec(stf.WithLogger(l))
	}
}

// WithNewEntryPrefix changes the id used by Add.
func WithNewEntryPrefix(prefix string) Option {
	return func(d *Document) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

func newDocument(opts []Option) *Document {
	d := &Document{
		codec:  stf.NewCodec(),
		logger: zap.NewNop(),
		prefix: DefaultNewEntryPrefix,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// New creates an unsaved document holding a copy of table. A nil table
// starts empty with NextUID 1.
func New(table *stf.Table, opts ...Option) *Document {
	d := newDocument(opts)
	if table == nil {
		table = &stf.Table{NextUID: 1}
	}
	d.table = table.Clone()
	return d
}

// Open reads and decodes the file at path.
func Open(path string, opts ...Option) (*Document, error) {
	d := newDocument(opts)
	d.path = path
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Load replaces the table with data decoded from bytes and clears history.
func (d *Document) Load(data []byte) error {
	table, err := d.codec.Decode(data)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset(table)
	return nil
}

func (d *Document) reset(table *stf.Table) {
	d.table = table
	d.undo = nil
	d.redo = nil
	d.dirty = false
}

// Reload re-reads the file, dropping unsaved changes and history.
func (d *Document) Reload() error {
	d.mu.Lock()
	path := d.path
	d.mu.Unlock()
	if path == "" {
		return ErrNoPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := d.Load(data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	d.logger.Debug("loaded document", zap.String("path", path), zap.Int("entries", d.Len()))
	return nil
}

// Revert is Reload under the name editors use for it.
func (d *Document) Revert() error {
	return d.Reload()
}

// Path returns the file the document saves to, or "" when unsaved.
func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Dirty reports whether there are changes not yet saved.
func (d *Document) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Table returns a snapshot of the current table.
func (d *Document) Table() *stf.Table {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table.Clone()
}

// Entries returns a snapshot of the current entries.
func (d *Document) Entries() []stf.StringEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stf.CloneEntries(d.table.Entries)
}

// Len returns the number of rows.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.table.Entries)
}

// Bytes encodes the current table.
func (d *Document) Bytes() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codec.Encode(d.table)
}

// Save writes the table back to its path.
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return ErrNoPath
	}
	return d.saveLocked(d.path)
}

// SaveAs writes the table to path and makes path the document's file.
func (d *Document) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.saveLocked(path); err != nil {
		return err
	}
	d.path = path
	return nil
}

func (d *Document) saveLocked(path string) error {
	data, err := d.codec.Encode(d.table)
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return err
	}
	d.dirty = false
	d.logger.Info("saved document",
		zap.String("path", path),
		zap.Int("entries", len(d.table.Entries)),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Backup stores the encoded table in backend. The document stays dirty.
func (d *Document) Backup(ctx context.Context, backend storage.Backend) (ksuid.KSUID, error) {
	data, err := d.Bytes()
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to encode table: %w", err)
	}
	id, err := backend.Put(ctx, data)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store backup: %w", err)
	}
	d.logger.Info("backed up document", zap.String("path", d.Path()), zap.Stringer("backup_id", id))
	return id, nil
}

// Restore replaces the table with a stored backup. History is cleared and the
// document is marked dirty until saved.
func (d *Document) Restore(ctx context.Context, backend storage.Backend, id ksuid.KSUID) error {
	data, err := backend.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load backup: %w", err)
	}
	table, err := d.codec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode backup %s: %w", id, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset(table)
	d.dirty = true
	return nil
}
