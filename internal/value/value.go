// Package value implements the tagged scalar/URI/Record value model tuples
// carry, and its self-describing byte encoding.
package value

import "fmt"

// Kind discriminates the closed set of value variants a tuple may carry.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBool
	KindShort
	KindBigInt
	KindBigDecimal
	KindURI
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindShort:
		return "short"
	case KindBigInt:
		return "bigint"
	case KindBigDecimal:
		return "bigdecimal"
	case KindURI:
		return "uri"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// BigDecimal is an arbitrary-precision decimal: unscaled * 10^-scale,
// mirroring java.math.BigDecimal's (unscaledValue, scale) representation.
type BigDecimal struct {
	Unscaled []byte // two's-complement, big-endian, minimal length
	Scale    int8
}

// RecordEntry is one (property, value) pair of a Record.
type RecordEntry struct {
	Property string
	Value    Value
}

// Record is an ordered, append-only list of (property URI, value) pairs.
// Duplicate properties are allowed; order is preserved on round-trip.
type Record struct {
	Entries []RecordEntry
}

// Append returns a new Record with entry appended, leaving r unmodified.
func (r Record) Append(property string, v Value) Record {
	entries := make([]RecordEntry, len(r.Entries), len(r.Entries)+1)
	copy(entries, r.Entries)
	entries = append(entries, RecordEntry{Property: property, Value: v})
	return Record{Entries: entries}
}

func (r Record) Equal(o Record) bool {
	if len(r.Entries) != len(o.Entries) {
		return false
	}
	for i := range r.Entries {
		if r.Entries[i].Property != o.Entries[i].Property {
			return false
		}
		if !r.Entries[i].Value.Equal(o.Entries[i].Value) {
			return false
		}
	}
	return true
}

// Value is the tagged union every tuple value and Record entry carries.
// Exactly one field is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	I32  int32
	I64  int64
	F32  float32
	F64  float64
	Str  string
	B    bool
	Sh   int16
	Big  []byte // two's-complement big-endian, for KindBigInt
	Dec  BigDecimal
	URI  string
	Rec  Record
}

func Int32(v int32) Value     { return Value{Kind: KindInt32, I32: v} }
func Int64(v int64) Value     { return Value{Kind: KindInt64, I64: v} }
func Float32(v float32) Value { return Value{Kind: KindFloat32, F32: v} }
func Float64(v float64) Value { return Value{Kind: KindFloat64, F64: v} }
func String(v string) Value   { return Value{Kind: KindString, Str: v} }
func Bool(v bool) Value       { return Value{Kind: KindBool, B: v} }
func Short(v int16) Value     { return Value{Kind: KindShort, Sh: v} }
func BigInt(v []byte) Value   { return Value{Kind: KindBigInt, Big: v} }
func Decimal(v BigDecimal) Value {
	return Value{Kind: KindBigDecimal, Dec: v}
}
func URI(v string) Value        { return Value{Kind: KindURI, URI: v} }
func RecordValue(r Record) Value { return Value{Kind: KindRecord, Rec: r} }

// IsNumeric reports whether v is a kind the aggregation iterator can
// average/sum/min/max over.
func (v Value) IsNumeric() bool {
	switch v.Kind {
	case KindInt32, KindInt64, KindFloat32, KindFloat64, KindShort, KindBigInt, KindBigDecimal:
		return true
	default:
		return false
	}
}

// AsFloat64 converts a numeric value to float64 for aggregation purposes.
// Panics if !v.IsNumeric(); callers must check first.
func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case KindInt32:
		return float64(v.I32)
	case KindInt64:
		return float64(v.I64)
	case KindFloat32:
		return float64(v.F32)
	case KindFloat64:
		return v.F64
	case KindShort:
		return float64(v.Sh)
	case KindBigInt:
		return bigIntToFloat64(v.Big)
	case KindBigDecimal:
		return bigDecimalToFloat64(v.Dec)
	default:
		panic("value: AsFloat64 on non-numeric kind " + v.Kind.String())
	}
}

// AsFloat64OrZero is AsFloat64 for numeric kinds, 0 otherwise. Used by
// the aggregation iterator to seed min/max accumulators uniformly even
// for non-numeric ops (count/first/last) where the value is never read.
func (v Value) AsFloat64OrZero() float64 {
	if !v.IsNumeric() {
		return 0
	}
	return v.AsFloat64()
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt32:
		return v.I32 == o.I32
	case KindInt64:
		return v.I64 == o.I64
	case KindFloat32:
		return v.F32 == o.F32
	case KindFloat64:
		return v.F64 == o.F64
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.B == o.B
	case KindShort:
		return v.Sh == o.Sh
	case KindBigInt:
		return string(v.Big) == string(o.Big)
	case KindBigDecimal:
		return v.Dec.Scale == o.Dec.Scale && string(v.Dec.Unscaled) == string(o.Dec.Unscaled)
	case KindURI:
		return v.URI == o.URI
	case KindRecord:
		return v.Rec.Equal(o.Rec)
	default:
		return false
	}
}
