package stf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadMagic is returned when the first two bytes are not 0xABCD.
	ErrBadMagic = errors.New("stf: bad magic")

	// ErrTruncated is returned when a field or length prefix runs past the
	// end of the buffer.
	ErrTruncated = errors.New("stf: unexpected end of data")

	// ErrTooLarge is returned by Encode when a length does not fit in 32 bits.
	ErrTooLarge = errors.New("stf: length exceeds 32 bits")

	// ErrNilTable is returned by Encode for a nil table.
	ErrNilTable = errors.New("stf: nil table")
)

// Section names a region of the layout.
type Section string

const (
	SectionHeader Section = "header"
	SectionValues Section = "values"
	SectionIDs    Section = "ids"
)

// FormatError describes malformed input. It wraps one of the sentinel errors
// so callers can test it with errors.Is.
type FormatError struct {
	Err     error
	Section Section
	Field   string
	Detail  string
	Offset  int
	Entry   int // zero-based record number, -1 for the header
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Section != "" {
		b.WriteString(" in ")
		b.WriteString(string(e.Section))
		if e.Entry >= 0 {
			fmt.Fprintf(&b, "[%d]", e.Entry)
		}
	}
	if e.Field != "" {
		b.WriteString(" reading ")
		b.WriteString(e.Field)
	}
	fmt.Fprintf(&b, " at offset %d", e.Offset)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func badMagic(got uint16) error {
	return &FormatError{
		Err:     ErrBadMagic,
		Section: SectionHeader,
		Field:   "magic",
		Entry:   -1,
		Detail:  fmt.Sprintf("expected 0x%04X, got 0x%04X", Magic, got),
	}
}
