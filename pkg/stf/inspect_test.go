package stf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Layout(t *testing.T) {
	rep, err := Inspect(mustHex(t, helloHex))
	require.NoError(t, err)

	assert.Equal(t, 42, rep.Size)
	assert.Equal(t, uint8(1), rep.Version)
	assert.Equal(t, uint32(2), rep.NextUID)
	assert.Equal(t, uint32(1), rep.NumStrings)
	assert.Equal(t, SectionInfo{Offset: 13, Length: 16}, rep.Values)
	assert.Equal(t, SectionInfo{Offset: 29, Length: 13}, rep.IDs)
	assert.Equal(t, []RecordInfo{{Index: 1, Offset: 13, Count: 2, Size: 16}}, rep.ValueRecords)
	assert.Equal(t, []RecordInfo{{Index: 1, Offset: 29, Count: 5, Size: 13}}, rep.IDRecords)
	assert.Zero(t, rep.TrailingBytes)
	assert.True(t, rep.Clean())
}

func TestInspect_CrossReferenceProblems(t *testing.T) {
	data := new(rawBuilder).header(1, 1, 3).
		value(1, "a").
		value(1, "b").
		value(4, "unused").
		id(1, "dup").
		id(1, "dup").
		id(8, "orphan").
		Bytes()
	data = append(data, 0x00)

	rep, err := Inspect(data)
	require.NoError(t, err)

	assert.Equal(t, []uint32{8}, rep.Orphans)
	assert.Equal(t, []uint32{4}, rep.Unreferenced)
	assert.Equal(t, []uint32{1}, rep.DuplicateValueIndices)
	assert.Equal(t, []uint32{1}, rep.DuplicateIDIndices)
	assert.Equal(t, []string{"dup"}, rep.DuplicateIDs)
	assert.Equal(t, 1, rep.TrailingBytes)
	assert.False(t, rep.Clean())
}

func TestInspect_Errors(t *testing.T) {
	_, err := Inspect([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, ErrBadMagic)

	full := mustHex(t, helloHex)
	_, err = Inspect(full[:30])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestInspect_AgreesWithDecode(t *testing.T) {
	full := new(rawBuilder).header(1, 9, 2).
		value(2, "two").
		value(1, "one").
		id(1, "first").
		id(2, "second").
		Bytes()

	// Every prefix fails identically through both entry points.
	for n := 0; n < len(full); n++ {
		_, decodeErr := Decode(full[:n])
		_, inspectErr := Inspect(full[:n])
		require.Error(t, decodeErr, "prefix %d", n)
		assert.Equal(t, decodeErr.Error(), inspectErr.Error(), "prefix %d", n)
	}

	tbl, rep, err := DecodeWithReport(full)
	require.NoError(t, err)
	decoded, err := Decode(full)
	require.NoError(t, err)
	inspected, err := Inspect(full)
	require.NoError(t, err)

	assert.Equal(t, decoded, tbl)
	assert.Equal(t, inspected, rep)
	assert.Equal(t, int(rep.NumStrings), len(tbl.Entries))
	require.Len(t, rep.IDRecords, len(tbl.Entries))
	for i, rec := range rep.IDRecords {
		assert.Equal(t, NarrowLen(tbl.Entries[i].ID), int(rec.Count))
	}
	assert.Equal(t, "one", tbl.Entries[0].Value.String())
}
