package stf

import "sort"

// SectionInfo locates a section within a buffer.
type SectionInfo struct {
	Offset int `json:"offset" yaml:"offset"`
	Length int `json:"length" yaml:"length"`
}

// RecordInfo describes one record as laid out on disk.
type RecordInfo struct {
	Index  uint32 `json:"index" yaml:"index"`
	Offset int    `json:"offset" yaml:"offset"`
	Count  uint32 `json:"count" yaml:"count"` // code units for values, bytes for ids
	Size   int    `json:"size" yaml:"size"`
}

// Report is the layout of an STF buffer together with the cross-reference
// problems that Decode tolerates silently.
type Report struct {
	Size          int          `json:"size" yaml:"size"`
	Version       uint8        `json:"version" yaml:"version"`
	NextUID       uint32       `json:"next_uid" yaml:"next_uid"`
	NumStrings    uint32       `json:"num_strings" yaml:"num_strings"`
	Values        SectionInfo  `json:"values" yaml:"values"`
	IDs           SectionInfo  `json:"ids" yaml:"ids"`
	ValueRecords  []RecordInfo `json:"value_records" yaml:"value_records"`
	IDRecords     []RecordInfo `json:"id_records" yaml:"id_records"`
	TrailingBytes int          `json:"trailing_bytes" yaml:"trailing_bytes"`

	// Orphans are id-section indices with no value record; they decode to an
	// empty value.
	Orphans []uint32 `json:"orphans,omitempty" yaml:"orphans,omitempty"`
	// Unreferenced are value-section indices no id points at; they are
	// dropped by Decode.
	Unreferenced []uint32 `json:"unreferenced,omitempty" yaml:"unreferenced,omitempty"`
	// DuplicateValueIndices repeat within the value section; the last wins.
	DuplicateValueIndices []uint32 `json:"duplicate_value_indices,omitempty" yaml:"duplicate_value_indices,omitempty"`
	DuplicateIDIndices    []uint32 `json:"duplicate_id_indices,omitempty" yaml:"duplicate_id_indices,omitempty"`
	DuplicateIDs          []string `json:"duplicate_ids,omitempty" yaml:"duplicate_ids,omitempty"`
}

// Clean reports whether the buffer has no cross-reference problems.
func (r *Report) Clean() bool {
	return len(r.Orphans) == 0 &&
		len(r.Unreferenced) == 0 &&
		len(r.DuplicateValueIndices) == 0 &&
		len(r.DuplicateIDIndices) == 0 &&
		len(r.DuplicateIDs) == 0 &&
		r.TrailingBytes == 0
}

// Inspect walks data the same way Decode does and reports where everything
// is. It fails with the same errors as Decode.
func Inspect(data []byte) (*Report, error) {
	l, err := parseLayout(data)
	if err != nil {
		return nil, err
	}
	return l.report(), nil
}

func (l *layout) report() *Report {
	rep := &Report{
		Size:          l.size,
		Version:       l.version,
		NextUID:       l.nextUID,
		NumStrings:    l.count,
		Values:        l.values,
		IDs:           l.ids,
		TrailingBytes: l.trailing,
	}

	valueSeen := make(map[uint32]bool, len(l.valueRec))
	for _, rec := range l.valueRec {
		if valueSeen[rec.Index] {
			rep.DuplicateValueIndices = append(rep.DuplicateValueIndices, rec.Index)
		}
		valueSeen[rec.Index] = true
		rep.ValueRecords = append(rep.ValueRecords, rec.RecordInfo)
	}

	idSeen := make(map[uint32]bool, len(l.idRec))
	names := make(map[string]int)
	for _, rec := range l.idRec {
		if idSeen[rec.Index] {
			rep.DuplicateIDIndices = append(rep.DuplicateIDIndices, rec.Index)
		}
		idSeen[rec.Index] = true
		if !valueSeen[rec.Index] {
			rep.Orphans = append(rep.Orphans, rec.Index)
		}
		id := DecodeNarrow(rec.raw)
		names[id]++
		if names[id] == 2 {
			rep.DuplicateIDs = append(rep.DuplicateIDs, id)
		}
		rep.IDRecords = append(rep.IDRecords, rec.RecordInfo)
	}

	for index := range valueSeen {
		if !idSeen[index] {
			rep.Unreferenced = append(rep.Unreferenced, index)
		}
	}
	sort.Slice(rep.Unreferenced, func(i, j int) bool { return rep.Unreferenced[i] < rep.Unreferenced[j] })

	return rep
}
