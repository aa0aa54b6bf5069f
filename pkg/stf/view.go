package stf

import (
	"fmt"
	"unicode/utf16"
)

// EntryView is the interchange form of a StringEntry. Value is the text as
// UTF-8. Units carries the raw code units only when the value holds a lone
// surrogate, which UTF-8 cannot express.
type EntryView struct {
	ID    string   `json:"id" yaml:"id"`
	Value string   `json:"value" yaml:"value"`
	Units []uint16 `json:"units,omitempty" yaml:"units,omitempty"`
}

// TableView is the interchange form of a Table, used for JSON and YAML.
type TableView struct {
	Version uint8       `json:"version" yaml:"version"`
	NextUID uint32      `json:"next_uid" yaml:"next_uid"`
	Entries []EntryView `json:"entries" yaml:"entries"`
}

// ToView converts t to its interchange form.
func ToView(t *Table) TableView {
	v := TableView{
		Version: t.Version,
		NextUID: t.NextUID,
		Entries: make([]EntryView, len(t.Entries)),
	}
	for i, e := range t.Entries {
		ev := EntryView{ID: e.ID, Value: e.Value.String()}
		if !e.Value.Valid() {
			ev.Units = append([]uint16(nil), e.Value...)
		}
		v.Entries[i] = ev
	}
	return v
}

// Table converts the view back to a Table. When an entry has Units they take
// precedence over Value.
func (v TableView) Table() (*Table, error) {
	t := &Table{
		Version: v.Version,
		NextUID: v.NextUID,
		Entries: make([]StringEntry, len(v.Entries)),
	}
	for i, ev := range v.Entries {
		e := StringEntry{ID: ev.ID}
		switch {
		case len(ev.Units) > 0:
			e.Value = append(WideString(nil), ev.Units...)
			if ev.Value != "" && ev.Value != string(utf16.Decode(ev.Units)) {
				return nil, fmt.Errorf("entry %d (%q): value and units disagree", i, ev.ID)
			}
		default:
			e.Value = Wide(ev.Value)
		}
		t.Entries[i] = e
	}
	return t, nil
}
