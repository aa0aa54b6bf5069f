package stf

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Codec decodes and encodes string tables. The zero value is not usable; call
// NewCodec.
type Codec struct {
	logger *zap.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger makes the codec log decode summaries at debug level and id
// narrowing at warn level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCodec creates a codec. Without options it does not log.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Decode parses data with a non-logging codec.
func Decode(data []byte) (*Table, error) {
	return defaultCodec.Decode(data)
}

// DecodeWithReport parses data once with a non-logging codec.
func DecodeWithReport(data []byte) (*Table, *Report, error) {
	return defaultCodec.DecodeWithReport(data)
}

// Encode serializes t with a non-logging codec.
func Encode(t *Table) ([]byte, error) {
	return defaultCodec.Encode(t)
}

// Decode parses an STF buffer. It returns either a complete table or an error,
// never both. The returned table does not alias data.
func (c *Codec) Decode(data []byte) (*Table, error) {
	l, err := parseLayout(data)
	if err != nil {
		return nil, err
	}
	return c.table(l), nil
}

// DecodeWithReport parses data once and returns both the table and its
// layout report.
func (c *Codec) DecodeWithReport(data []byte) (*Table, *Report, error) {
	l, err := parseLayout(data)
	if err != nil {
		return nil, nil, err
	}
	return c.table(l), l.report(), nil
}

// table resolves a layout into entries. Sections are linked by index, not
// position: ids keep their on-disk order and the last value for an index wins.
func (c *Codec) table(l *layout) *Table {
	values := make(map[uint32]WideString, len(l.valueRec))
	for _, rec := range l.valueRec {
		values[rec.Index] = decodeWide(rec.raw)
	}

	entries := make([]StringEntry, 0, len(l.idRec))
	missing := 0
	for _, rec := range l.idRec {
		value, ok := values[rec.Index]
		if !ok {
			missing++
		}
		entries = append(entries, StringEntry{ID: DecodeNarrow(rec.raw), Value: value})
	}

	c.logger.Debug("decoded string table",
		zap.Int("bytes", l.size),
		zap.Uint8("version", l.version),
		zap.Uint32("next_uid", l.nextUID),
		zap.Int("entries", len(entries)),
		zap.Int("missing_values", missing),
		zap.Int("trailing_bytes", l.trailing),
	)

	return &Table{Version: l.version, NextUID: l.nextUID, Entries: entries}
}

// Encode serializes t into a buffer of exactly t.Size() bytes.
// Format: header, value section, id section; see the package documentation.
func (c *Codec) Encode(t *Table) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	if uint64(len(t.Entries)) > math.MaxUint32 {
		return nil, fmt.Errorf("entry count %d: %w", len(t.Entries), ErrTooLarge)
	}
	for i, e := range t.Entries {
		if uint64(len(e.Value)) > math.MaxUint32 {
			return nil, fmt.Errorf("entry %d value: %w", i, ErrTooLarge)
		}
		if uint64(NarrowLen(e.ID)) > math.MaxUint32 {
			return nil, fmt.Errorf("entry %d id: %w", i, ErrTooLarge)
		}
	}

	buf := make([]byte, t.Size())

	binary.LittleEndian.PutUint16(buf[0:], Magic)
	// buf[2:4] is padding and stays zero.
	buf[4] = t.Version
	binary.LittleEndian.PutUint32(buf[5:], t.NextUID)
	binary.LittleEndian.PutUint32(buf[9:], uint32(len(t.Entries)))
	off := HeaderSize

	for i, e := range t.Entries {
		binary.LittleEndian.PutUint32(buf[off:], uint32(i+1))
		binary.LittleEndian.PutUint32(buf[off+4:], ValueKey)
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(len(e.Value)))
		off += valueRecordHeader
		off += putWide(buf[off:], e.Value)
	}

	for i, e := range t.Entries {
		binary.LittleEndian.PutUint32(buf[off:], uint32(i+1))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(NarrowLen(e.ID)))
		off += idRecordHeader
		off += putNarrow(buf[off:], e.ID)
	}

	if c.logger.Core().Enabled(zap.WarnLevel) {
		c.warnNarrowing(t)
	}

	return buf, nil
}

func (c *Codec) warnNarrowing(t *Table) {
	last := -1
	for _, loss := range NarrowingLosses(t) {
		if loss.Entry == last {
			continue
		}
		last = loss.Entry
		c.logger.Warn("id characters truncated to one byte",
			zap.Int("entry", loss.Entry),
			zap.String("id", t.Entries[loss.Entry].ID),
			zap.Int("position", loss.Position),
		)
	}
}

// capacityHint bounds a preallocation by what the remaining bytes could
// actually hold, since count comes from untrusted input.
func capacityHint(count uint32, remaining, minRecord int) int {
	limit := remaining / minRecord
	if uint64(count) < uint64(limit) {
		return int(count)
	}
	return limit
}
