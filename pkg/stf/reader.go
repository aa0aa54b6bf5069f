package stf

import (
	"encoding/binary"
	"fmt"
)

// reader is a bounds-checked cursor over an STF buffer. Every read checks the
// remaining length first and reports the field that would overrun.
type reader struct {
	buf     []byte
	off     int
	section Section
	entry   int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf, section: SectionHeader, entry: -1}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

// enter moves the cursor's error context to a record in a section.
func (r *reader) enter(section Section, entry int) {
	r.section = section
	r.entry = entry
}

func (r *reader) need(n uint64, field string) error {
	if n <= uint64(r.remaining()) {
		return nil
	}
	return &FormatError{
		Err:     ErrTruncated,
		Section: r.section,
		Field:   field,
		Offset:  r.off,
		Entry:   r.entry,
		Detail:  fmt.Sprintf("need %d bytes, have %d", n, r.remaining()),
	}
}

func (r *reader) skip(n int, field string) error {
	if err := r.need(uint64(n), field); err != nil {
		return err
	}
	r.off += n
	return nil
}

func (r *reader) u8(field string) (uint8, error) {
	if err := r.need(1, field); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16(field string) (uint16, error) {
	if err := r.need(2, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u32(field string) (uint32, error) {
	if err := r.need(4, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// bytes returns the next n bytes without copying.
func (r *reader) bytes(n uint64, field string) ([]byte, error) {
	if err := r.need(n, field); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}
