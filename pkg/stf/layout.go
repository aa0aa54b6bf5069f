package stf

// record is one value or id record. raw aliases the input buffer.
type record struct {
	RecordInfo
	raw []byte
}

// layout is a single bounds-checked walk over an STF buffer. Decode and
// Inspect are both built from it.
type layout struct {
	size     int
	version  uint8
	nextUID  uint32
	count    uint32
	values   SectionInfo
	ids      SectionInfo
	valueRec []record
	idRec    []record
	trailing int
}

func parseLayout(data []byte) (*layout, error) {
	r := newReader(data)

	magic, err := r.u16("magic")
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, badMagic(magic)
	}
	if err := r.skip(2, "padding"); err != nil {
		return nil, err
	}
	l := &layout{size: len(data)}
	if l.version, err = r.u8("version"); err != nil {
		return nil, err
	}
	if l.nextUID, err = r.u32("next_uid"); err != nil {
		return nil, err
	}
	if l.count, err = r.u32("num_strings"); err != nil {
		return nil, err
	}

	l.values.Offset = r.off
	l.valueRec = make([]record, 0, capacityHint(l.count, r.remaining(), valueRecordHeader))
	for i := uint32(0); i < l.count; i++ {
		r.enter(SectionValues, int(i))
		start := r.off
		index, err := r.u32("index")
		if err != nil {
			return nil, err
		}
		if err := r.skip(4, "key"); err != nil {
			return nil, err
		}
		n, err := r.u32("count")
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(uint64(n)*2, "text")
		if err != nil {
			return nil, err
		}
		l.valueRec = append(l.valueRec, record{
			RecordInfo: RecordInfo{Index: index, Offset: start, Count: n, Size: r.off - start},
			raw:        raw,
		})
	}
	l.values.Length = r.off - l.values.Offset

	l.ids.Offset = r.off
	l.idRec = make([]record, 0, capacityHint(l.count, r.remaining(), idRecordHeader))
	for i := uint32(0); i < l.count; i++ {
		r.enter(SectionIDs, int(i))
		start := r.off
		index, err := r.u32("index")
		if err != nil {
			return nil, err
		}
		n, err := r.u32("length")
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(uint64(n), "id")
		if err != nil {
			return nil, err
		}
		l.idRec = append(l.idRec, record{
			RecordInfo: RecordInfo{Index: index, Offset: start, Count: n, Size: r.off - start},
			raw:        raw,
		})
	}
	l.ids.Length = r.off - l.ids.Offset
	l.trailing = r.remaining()

	return l, nil
}
