package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrEncoding is returned when a value cannot be represented in the byte
// encoding (e.g. a property URI longer than 255 bytes).
var ErrEncoding = errors.New("value: encoding error")

// ErrDecoding is returned when a byte sequence does not describe a known
// value shape.
var ErrDecoding = errors.New("value: decoding error")

// Tag bytes. 'R' and 'O' match the single-byte prefixes SPEC_FULL.md §4.2
// names; tagNestedRecord is this module's own addition resolving how a
// Record nested as *another* Record's value is bounded (see DESIGN.md —
// the retrieved Java source only showed a single-level Record chain, not
// the multi-entry list spec.md describes, so a length-prefixed wrapper was
// needed to make nested multi-entry Records self-delimiting).
const (
	tagRecordFrame byte = 'O' // 0x4F: one (property, value) entry frame
	tagURI         byte = 'R' // 0x52: a URI value
	tagNestedRecord byte = 'N' // 0x4E: a Record used as a nested value slot

	tagInt32      byte = 0x01
	tagInt64      byte = 0x02
	tagFloat32    byte = 0x03
	tagFloat64    byte = 0x04
	tagString     byte = 0x05
	tagBool       byte = 0x06
	tagShort      byte = 0x07
	tagBigInt     byte = 0x08
	tagBigDecimal byte = 0x09
)

// Encode serializes v into the self-describing byte form described in
// SPEC_FULL.md §4.2. A Record with N entries at the top level is encoded
// as N concatenated 'O' frames with no outer wrapper, since the caller
// (a single parquet valueObject column) consumes the whole buffer.
func Encode(v Value) ([]byte, error) {
	if v.Kind == KindRecord {
		return encodeEntries(v.Rec.Entries)
	}
	return encodeValueSlot(v)
}

func encodeEntries(entries []RecordEntry) ([]byte, error) {
	var out []byte
	for _, e := range entries {
		frame, err := encodeEntryFrame(e)
		if err != nil {
			return nil, err
		}
		out = append(out, frame...)
	}
	return out, nil
}

func encodeEntryFrame(e RecordEntry) ([]byte, error) {
	if len(e.Property) > 255 {
		return nil, fmt.Errorf("%w: property uri %q exceeds 255 bytes", ErrEncoding, e.Property)
	}
	child, err := encodeValueSlot(e.Value)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+len(e.Property)+len(child))
	out = append(out, tagRecordFrame, byte(len(e.Property)))
	out = append(out, e.Property...)
	out = append(out, child...)
	return out, nil
}

// encodeValueSlot encodes v as it appears in a value-bearing position: a
// record entry's value, or the top-level scalar/URI value of a row.
func encodeValueSlot(v Value) ([]byte, error) {
	switch v.Kind {
	case KindRecord:
		inner, err := encodeEntries(v.Rec.Entries)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 5, 5+len(inner))
		out[0] = tagNestedRecord
		binary.BigEndian.PutUint32(out[1:5], uint32(len(inner)))
		out = append(out, inner...)
		return out, nil
	case KindURI:
		if len(v.URI) > 255 {
			return nil, fmt.Errorf("%w: uri value %q exceeds 255 bytes", ErrEncoding, v.URI)
		}
		out := make([]byte, 0, 2+len(v.URI))
		out = append(out, tagURI, byte(len(v.URI)))
		out = append(out, v.URI...)
		return out, nil
	case KindInt32:
		out := make([]byte, 5)
		out[0] = tagInt32
		binary.BigEndian.PutUint32(out[1:], uint32(v.I32))
		return out, nil
	case KindInt64:
		out := make([]byte, 9)
		out[0] = tagInt64
		binary.BigEndian.PutUint64(out[1:], uint64(v.I64))
		return out, nil
	case KindFloat32:
		out := make([]byte, 5)
		out[0] = tagFloat32
		binary.BigEndian.PutUint32(out[1:], math.Float32bits(v.F32))
		return out, nil
	case KindFloat64:
		out := make([]byte, 9)
		out[0] = tagFloat64
		binary.BigEndian.PutUint64(out[1:], math.Float64bits(v.F64))
		return out, nil
	case KindString:
		out := make([]byte, 5+len(v.Str))
		out[0] = tagString
		binary.BigEndian.PutUint32(out[1:5], uint32(len(v.Str)))
		copy(out[5:], v.Str)
		return out, nil
	case KindBool:
		b := byte(0)
		if v.B {
			b = 1
		}
		return []byte{tagBool, b}, nil
	case KindShort:
		out := make([]byte, 3)
		out[0] = tagShort
		binary.BigEndian.PutUint16(out[1:], uint16(v.Sh))
		return out, nil
	case KindBigInt:
		out := make([]byte, 5+len(v.Big))
		out[0] = tagBigInt
		binary.BigEndian.PutUint32(out[1:5], uint32(len(v.Big)))
		copy(out[5:], v.Big)
		return out, nil
	case KindBigDecimal:
		out := make([]byte, 6+len(v.Dec.Unscaled))
		out[0] = tagBigDecimal
		out[1] = byte(v.Dec.Scale)
		binary.BigEndian.PutUint32(out[2:6], uint32(len(v.Dec.Unscaled)))
		copy(out[6:], v.Dec.Unscaled)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %v", ErrEncoding, v.Kind)
	}
}

// Decode parses bytes produced by Encode back into a Value.
func Decode(b []byte) (Value, error) {
	if len(b) == 0 {
		return Value{}, fmt.Errorf("%w: empty input", ErrDecoding)
	}
	if b[0] == tagRecordFrame {
		entries, n, err := decodeEntries(b)
		if err != nil {
			return Value{}, err
		}
		if n != len(b) {
			return Value{}, fmt.Errorf("%w: trailing bytes after record frames", ErrDecoding)
		}
		return RecordValue(Record{Entries: entries}), nil
	}
	v, n, err := decodeValueSlot(b)
	if err != nil {
		return Value{}, err
	}
	if n != len(b) {
		return Value{}, fmt.Errorf("%w: trailing bytes after value", ErrDecoding)
	}
	return v, nil
}

// decodeEntries parses consecutive 'O' frames starting at b[0] until b is
// exhausted, returning the ordered entry list and bytes consumed.
func decodeEntries(b []byte) ([]RecordEntry, int, error) {
	var entries []RecordEntry
	pos := 0
	for pos < len(b) {
		if b[pos] != tagRecordFrame {
			return nil, 0, fmt.Errorf("%w: expected record frame", ErrDecoding)
		}
		if pos+2 > len(b) {
			return nil, 0, fmt.Errorf("%w: truncated record frame", ErrDecoding)
		}
		plen := int(b[pos+1])
		start := pos + 2
		if start+plen > len(b) {
			return nil, 0, fmt.Errorf("%w: truncated record property", ErrDecoding)
		}
		property := string(b[start : start+plen])
		val, n, err := decodeValueSlot(b[start+plen:])
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, RecordEntry{Property: property, Value: val})
		pos = start + plen + n
	}
	return entries, pos, nil
}

// decodeValueSlot decodes exactly one value starting at b[0] and returns
// how many bytes it consumed.
func decodeValueSlot(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return Value{}, 0, fmt.Errorf("%w: empty value slot", ErrDecoding)
	}
	switch b[0] {
	case tagNestedRecord:
		if len(b) < 5 {
			return Value{}, 0, fmt.Errorf("%w: truncated nested record header", ErrDecoding)
		}
		length := int(binary.BigEndian.Uint32(b[1:5]))
		if len(b) < 5+length {
			return Value{}, 0, fmt.Errorf("%w: truncated nested record body", ErrDecoding)
		}
		entries, n, err := decodeEntries(b[5 : 5+length])
		if err != nil {
			return Value{}, 0, err
		}
		if n != length {
			return Value{}, 0, fmt.Errorf("%w: malformed nested record length", ErrDecoding)
		}
		return RecordValue(Record{Entries: entries}), 5 + length, nil
	case tagURI:
		if len(b) < 2 {
			return Value{}, 0, fmt.Errorf("%w: truncated uri", ErrDecoding)
		}
		n := int(b[1])
		if len(b) < 2+n {
			return Value{}, 0, fmt.Errorf("%w: truncated uri bytes", ErrDecoding)
		}
		return URI(string(b[2 : 2+n])), 2 + n, nil
	case tagInt32:
		if len(b) < 5 {
			return Value{}, 0, fmt.Errorf("%w: truncated int32", ErrDecoding)
		}
		return Int32(int32(binary.BigEndian.Uint32(b[1:5]))), 5, nil
	case tagInt64:
		if len(b) < 9 {
			return Value{}, 0, fmt.Errorf("%w: truncated int64", ErrDecoding)
		}
		return Int64(int64(binary.BigEndian.Uint64(b[1:9]))), 9, nil
	case tagFloat32:
		if len(b) < 5 {
			return Value{}, 0, fmt.Errorf("%w: truncated float32", ErrDecoding)
		}
		return Float32(math.Float32frombits(binary.BigEndian.Uint32(b[1:5]))), 5, nil
	case tagFloat64:
		if len(b) < 9 {
			return Value{}, 0, fmt.Errorf("%w: truncated float64", ErrDecoding)
		}
		return Float64(math.Float64frombits(binary.BigEndian.Uint64(b[1:9]))), 9, nil
	case tagString:
		if len(b) < 5 {
			return Value{}, 0, fmt.Errorf("%w: truncated string length", ErrDecoding)
		}
		n := int(binary.BigEndian.Uint32(b[1:5]))
		if len(b) < 5+n {
			return Value{}, 0, fmt.Errorf("%w: truncated string bytes", ErrDecoding)
		}
		return String(string(b[5 : 5+n])), 5 + n, nil
	case tagBool:
		if len(b) < 2 {
			return Value{}, 0, fmt.Errorf("%w: truncated bool", ErrDecoding)
		}
		return Bool(b[1] != 0), 2, nil
	case tagShort:
		if len(b) < 3 {
			return Value{}, 0, fmt.Errorf("%w: truncated short", ErrDecoding)
		}
		return Short(int16(binary.BigEndian.Uint16(b[1:3]))), 3, nil
	case tagBigInt:
		if len(b) < 5 {
			return Value{}, 0, fmt.Errorf("%w: truncated bigint length", ErrDecoding)
		}
		n := int(binary.BigEndian.Uint32(b[1:5]))
		if len(b) < 5+n {
			return Value{}, 0, fmt.Errorf("%w: truncated bigint bytes", ErrDecoding)
		}
		buf := make([]byte, n)
		copy(buf, b[5:5+n])
		return BigInt(buf), 5 + n, nil
	case tagBigDecimal:
		if len(b) < 6 {
			return Value{}, 0, fmt.Errorf("%w: truncated bigdecimal header", ErrDecoding)
		}
		scale := int8(b[1])
		n := int(binary.BigEndian.Uint32(b[2:6]))
		if len(b) < 6+n {
			return Value{}, 0, fmt.Errorf("%w: truncated bigdecimal bytes", ErrDecoding)
		}
		buf := make([]byte, n)
		copy(buf, b[6:6+n])
		return Decimal(BigDecimal{Unscaled: buf, Scale: scale}), 6 + n, nil
	default:
		return Value{}, 0, fmt.Errorf("%w: unknown tag 0x%02x", ErrDecoding, b[0])
	}
}
