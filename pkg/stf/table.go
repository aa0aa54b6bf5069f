package stf

const (
	// Magic identifies an STF buffer. It is stored little-endian as CD AB.
	Magic uint16 = 0xABCD

	// ValueKey is written into every value record. Decode skips it.
	ValueKey uint32 = 0xFFFFFFFF

	// HeaderSize is Magic(2) + Padding(2) + Version(1) + NextUID(4) + NumStrings(4).
	HeaderSize = 13

	valueRecordHeader = 12 // Index(4) + Key(4) + Count(4)
	idRecordHeader    = 8  // Index(4) + Length(4)
)

// StringEntry is one row of a string table.
type StringEntry struct {
	ID    string     // narrow text, one byte per character on disk
	Value WideString // wide text, one code unit per element
}

// NewEntry builds an entry from two Go strings.
func NewEntry(id, value string) StringEntry {
	return StringEntry{ID: id, Value: Wide(value)}
}

// Size returns the bytes this entry occupies across both sections.
func (e StringEntry) Size() int {
	return valueRecordHeader + 2*len(e.Value) + idRecordHeader + NarrowLen(e.ID)
}

// Table is a decoded STF file.
type Table struct {
	Version uint8  // passed through unchanged
	NextUID uint32 // advisory, not checked against the entries
	Entries []StringEntry
}

// Size returns the total size of the table when encoded.
func (t *Table) Size() int {
	n := HeaderSize
	for _, e := range t.Entries {
		n += e.Size()
	}
	return n
}

// Lookup returns the first entry with the given id.
func (t *Table) Lookup(id string) (StringEntry, bool) {
	for _, e := range t.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return StringEntry{}, false
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := &Table{Version: t.Version, NextUID: t.NextUID}
	c.Entries = CloneEntries(t.Entries)
	return c
}

// CloneEntries copies entries so the result shares no code unit storage.
func CloneEntries(entries []StringEntry) []StringEntry {
	if entries == nil {
		return nil
	}
	out := make([]StringEntry, len(entries))
	for i, e := range entries {
		out[i] = StringEntry{ID: e.ID, Value: append(WideString(nil), e.Value...)}
	}
	return out
}
