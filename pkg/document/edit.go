package document

import (
	"fmt"
	"strings"

	"github.com/ssargent/stfkit/pkg/stf"
	"go.uber.org/zap"
)

// Edit replaces all entries as one undoable change. NextUID becomes
// len(entries)+1.
func (d *Document) Edit(entries []stf.StringEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applyLocked(stf.CloneEntries(entries))
}

// applyLocked records the change, clears redo and recomputes NextUID.
func (d *Document) applyLocked(after []stf.StringEntry) {
	d.undo = append(d.undo, edit{before: d.table.Entries, after: after})
	d.redo = nil
	d.table.Entries = after
	d.table.NextUID = uint32(len(after) + 1)
	d.dirty = true
	d.logger.Debug("edited document", zap.String("path", d.path), zap.Int("entries", len(after)))
}

// Undo reverts the last edit. It restores entries only; NextUID keeps the
// value from the most recent edit.
func (d *Document) Undo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.undo) == 0 {
		return false
	}
	e := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.redo = append(d.redo, e)
	d.table.Entries = e.before
	d.dirty = true
	return true
}

// Redo reapplies the last undone edit.
func (d *Document) Redo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.redo) == 0 {
		return false
	}
	e := d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	d.undo = append(d.undo, e)
	d.table.Entries = e.after
	d.dirty = true
	return true
}

// CanUndo reports whether Undo would do anything.
func (d *Document) CanUndo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.undo) > 0
}

// CanRedo reports whether Redo would do anything.
func (d *Document) CanRedo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.redo) > 0
}

// Add appends an empty row with an unused id: the prefix, then prefix_1,
// prefix_2 and so on. It returns the new row number.
func (d *Document) Add() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	used := make(map[string]bool, len(d.table.Entries))
	for _, e := range d.table.Entries {
		used[e.ID] = true
	}
	id := d.prefix
	for counter := 1; used[id]; counter++ {
		id = fmt.Sprintf("%s_%d", d.prefix, counter)
	}

	after := stf.CloneEntries(d.table.Entries)
	after = append(after, stf.StringEntry{ID: id})
	d.applyLocked(after)
	return len(after) - 1
}

// Delete removes a row.
func (d *Document) Delete(row int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRowLocked(row); err != nil {
		return err
	}
	after := stf.CloneEntries(d.table.Entries)
	after = append(after[:row], after[row+1:]...)
	d.applyLocked(after)
	return nil
}

// SetID renames a row. Another row already using a non-empty id is an
// ErrDuplicateID; the empty id may repeat.
func (d *Document) SetID(row int, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRowLocked(row); err != nil {
		return err
	}
	if id != "" {
		for i, e := range d.table.Entries {
			if i != row && e.ID == id {
				return fmt.Errorf("%w: %q already exists at row %d", ErrDuplicateID, id, i)
			}
		}
	}
	after := stf.CloneEntries(d.table.Entries)
	after[row].ID = id
	d.applyLocked(after)
	return nil
}

// SetValue changes a row's text.
func (d *Document) SetValue(row int, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkRowLocked(row); err != nil {
		return err
	}
	after := stf.CloneEntries(d.table.Entries)
	after[row].Value = stf.Wide(value)
	d.applyLocked(after)
	return nil
}

// Set updates the value of the row with the given id, or appends a new row
// when none exists. It reports whether a row was created.
func (d *Document) Set(id, value string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	after := stf.CloneEntries(d.table.Entries)
	for i := range after {
		if after[i].ID == id {
			after[i].Value = stf.Wide(value)
			d.applyLocked(after)
			return false
		}
	}
	d.applyLocked(append(after, stf.NewEntry(id, value)))
	return true
}

// Remove deletes the first row with the given id.
func (d *Document) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.table.Entries {
		if e.ID == id {
			after := stf.CloneEntries(d.table.Entries)
			d.applyLocked(append(after[:i], after[i+1:]...))
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrIDNotFound, id)
}

// Get returns the first row with the given id.
func (d *Document) Get(id string) (stf.StringEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.table.Lookup(id)
	if !ok {
		return stf.StringEntry{}, false
	}
	return stf.CloneEntries([]stf.StringEntry{e})[0], true
}

func (d *Document) checkRowLocked(row int) error {
	if row < 0 || row >= len(d.table.Entries) {
		return fmt.Errorf("%w: %d (have %d rows)", ErrRowOutOfRange, row, len(d.table.Entries))
	}
	return nil
}

// Filter returns the rows whose id or value contains term, ignoring case.
// An empty term matches every row.
func (d *Document) Filter(term string) []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	term = strings.ToLower(term)
	rows := make([]int, 0, len(d.table.Entries))
	for i, e := range d.table.Entries {
		if term == "" ||
			strings.Contains(strings.ToLower(e.ID), term) ||
			strings.Contains(strings.ToLower(e.Value.String()), term) {
			rows = append(rows, i)
		}
	}
	return rows
}

// PageView is one page of a row list.
type PageView struct {
	Rows  []int // row numbers on this page
	Page  int   // zero-based page actually shown
	Pages int   // total pages, at least 1
	Total int   // rows across all pages
}

// Paginate slices rows into pages of size and returns the requested page,
// clamped into range. A size below 1 puts everything on one page.
func Paginate(rows []int, page, size int) PageView {
	if size < 1 {
		size = len(rows)
		if size == 0 {
			size = 1
		}
	}
	pages := (len(rows) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return PageView{Rows: rows[start:end], Page: page, Pages: pages, Total: len(rows)}
}
