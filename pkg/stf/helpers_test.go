package stf

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
)

// rawBuilder assembles STF buffers by hand so tests can describe layouts
// Encode would never produce.
type rawBuilder struct {
	bytes.Buffer
}

func (b *rawBuilder) u8(v uint8) *rawBuilder {
	b.WriteByte(v)
	return b
}

func (b *rawBuilder) u16(v uint16) *rawBuilder {
	_ = binary.Write(&b.Buffer, binary.LittleEndian, v)
	return b
}

func (b *rawBuilder) u32(v uint32) *rawBuilder {
	_ = binary.Write(&b.Buffer, binary.LittleEndian, v)
	return b
}

func (b *rawBuilder) header(version uint8, nextUID, count uint32) *rawBuilder {
	return b.u16(Magic).u16(0).u8(version).u32(nextUID).u32(count)
}

func (b *rawBuilder) value(index uint32, s string) *rawBuilder {
	w := Wide(s)
	b.u32(index).u32(ValueKey).u32(uint32(len(w)))
	for _, u := range w {
		b.u16(u)
	}
	return b
}

func (b *rawBuilder) id(index uint32, s string) *rawBuilder {
	b.u32(index).u32(uint32(len(s)))
	b.WriteString(s)
	return b
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}
