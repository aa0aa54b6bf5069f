package stf

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// WideString is wide text: raw UTF-16 code units in order. Lengths in the
// file count code units, so a character outside the basic plane occupies two
// elements here.
type WideString []uint16

// Wide converts a Go string to code units. Invalid UTF-8 becomes U+FFFD.
func Wide(s string) WideString {
	if s == "" {
		return nil
	}
	return WideString(utf16.Encode([]rune(s)))
}

// String converts the code units to a Go string. Lone surrogates become
// U+FFFD; use Valid to detect them first when exactness matters.
func (w WideString) String() string {
	return string(utf16.Decode(w))
}

// Valid reports whether every surrogate in w is part of a well-formed pair.
func (w WideString) Valid() bool {
	for i := 0; i < len(w); i++ {
		u := rune(w[i])
		switch {
		case u < 0xD800 || u > 0xDFFF:
		case u <= 0xDBFF && i+1 < len(w) && w[i+1] >= 0xDC00 && w[i+1] <= 0xDFFF:
			i++
		default:
			return false
		}
	}
	return true
}

// Equal reports whether w and o hold the same code units. Nil and empty are
// equal.
func (w WideString) Equal(o WideString) bool {
	if len(w) != len(o) {
		return false
	}
	for i := range w {
		if w[i] != o[i] {
			return false
		}
	}
	return true
}

func decodeWide(b []byte) WideString {
	if len(b) == 0 {
		return nil
	}
	w := make(WideString, len(b)/2)
	for i := range w {
		w[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return w
}

func putWide(dst []byte, w WideString) int {
	for i, u := range w {
		binary.LittleEndian.PutUint16(dst[2*i:], u)
	}
	return 2 * len(w)
}

// DecodeNarrow maps each byte to the character with the same code point
// (ISO 8859-1). It never fails.
func DecodeNarrow(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	return sb.String()
}

// EncodeNarrow writes one byte per character of s, keeping only the low
// eight bits of each code point.
func EncodeNarrow(s string) []byte {
	b := make([]byte, 0, NarrowLen(s))
	for _, r := range s {
		b = append(b, narrowByte(r))
	}
	return b
}

// NarrowLen is the encoded byte length of s: one byte per character.
func NarrowLen(s string) int {
	return utf8.RuneCountInString(s)
}

// narrowByte truncates r to its low byte. 0x141 becomes 0x41.
func narrowByte(r rune) byte {
	return byte(uint32(r) & 0xFF)
}

func putNarrow(dst []byte, s string) int {
	n := 0
	for _, r := range s {
		dst[n] = narrowByte(r)
		n++
	}
	return n
}

// NarrowingLoss records an id character that does not fit in one byte.
type NarrowingLoss struct {
	Entry    int  // entry position in the table
	Position int  // character position within the id
	Rune     rune // original character
	Byte     byte // byte that will be written
}

// NarrowingLosses lists every id character in t that Encode would truncate.
func NarrowingLosses(t *Table) []NarrowingLoss {
	if t == nil {
		return nil
	}
	var losses []NarrowingLoss
	for i, e := range t.Entries {
		pos := 0
		for _, r := range e.ID {
			if _, ok := charmap.ISO8859_1.EncodeRune(r); !ok {
				losses = append(losses, NarrowingLoss{
					Entry:    i,
					Position: pos,
					Rune:     r,
					Byte:     narrowByte(r),
				})
			}
			pos++
		}
	}
	return losses
}
