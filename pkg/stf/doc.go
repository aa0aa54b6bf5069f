// Package stf decodes and encodes STF string tables.
//
// An STF file holds a list of (identifier, text) pairs. Identifiers are
// narrow text (one byte per character) and texts are wide text (one 16-bit
// code unit per character). The two halves of each pair live in separate
// sections and are linked by a shared 1-based index.
//
// # Layout
//
// All integers are little-endian:
//
//	[Magic(2)=0xABCD][Padding(2)][Version(1)][NextUID(4)][NumStrings(4)]
//	NumStrings x [Index(4)][Key(4)=0xFFFFFFFF][Count(4)][Text(Count*2)]
//	NumStrings x [Index(4)][Length(4)][ID(Length)]
//
// The header is 13 bytes. The value section comes first, then the id section.
// The padding and the key constant are written as shown but never checked on
// read.
//
// # Decoding
//
// Decode builds an index to value map from the value section first and then
// walks the id section in its on-disk order, resolving each text by index. An
// id whose index has no value gets an empty text. Every length-prefixed read
// is bounds-checked; a short buffer yields a *FormatError wrapping
// ErrTruncated rather than a partial table.
//
//	table, err := stf.Decode(data)
//	if errors.Is(err, stf.ErrBadMagic) {
//	    // not an STF file
//	}
//
// # Encoding
//
// Encode computes the exact output size up front and fills a single buffer.
// Indices are always reassigned as i+1 in entry order, so indices found in a
// previously decoded file do not survive a round trip; only entry order does.
//
// Identifier characters above 0xFF keep only their low byte when encoded. This
// narrowing is not an error. NarrowingLosses reports where it would happen, and
// a Codec built WithLogger logs a warning for each affected entry.
//
// # Text
//
// Values are WideString, a slice of raw UTF-16 code units. Code units are
// stored literally: surrogate pairs count as two units and lone surrogates are
// preserved. Use Wide and WideString.String to move between Go strings and
// code units.
//
// # Thread Safety
//
// Decode and Encode hold no state between calls. A Codec is safe for
// concurrent use as long as callers do not mutate a buffer or table while it
// is being processed.
package stf
