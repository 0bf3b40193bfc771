package archive

import (
	"fmt"

	"github.com/linkedfactory/kvingo/internal/partitionkey"
	"github.com/linkedfactory/kvingo/internal/value"
)

// row is the on-disk shape of a tuple, per spec.md §3/§6. Exactly one
// value slot is populated; valueObject carries the self-describing byte
// form (internal/value) for Record, URI, short, big-integer, and
// big-decimal kinds, which have no dedicated native parquet column.
type row struct {
	ID          [24]byte `parquet:"id"`
	Time        int64    `parquet:"time"`
	SeqNr       int32    `parquet:"seq_nr"`
	ValueInt    *int32   `parquet:"value_int,optional"`
	ValueLong   *int64   `parquet:"value_long,optional"`
	ValueFloat  *float32 `parquet:"value_float,optional"`
	ValueDouble *float64 `parquet:"value_double,optional"`
	ValueString *string  `parquet:"value_string,optional,dict,zstd"`
	ValueBool   *bool    `parquet:"value_bool,optional"`
	ValueObject []byte   `parquet:"value_object,optional"`
}

func rowID(itemID, propertyID, contextID uint64) [24]byte {
	return partitionkey.New(itemID, propertyID, contextID)
}

// encodeRow fills a row's id/time/seqNr and exactly one value slot from v.
func encodeRow(itemID, propertyID, contextID uint64, t int64, seqNr int32, v value.Value) (row, error) {
	r := row{
		ID:    rowID(itemID, propertyID, contextID),
		Time:  t,
		SeqNr: seqNr,
	}
	switch v.Kind {
	case value.KindInt32:
		x := v.I32
		r.ValueInt = &x
	case value.KindInt64:
		x := v.I64
		r.ValueLong = &x
	case value.KindFloat32:
		x := v.F32
		r.ValueFloat = &x
	case value.KindFloat64:
		x := v.F64
		r.ValueDouble = &x
	case value.KindString:
		x := v.Str
		r.ValueString = &x
	case value.KindBool:
		x := v.B
		r.ValueBool = &x
	case value.KindShort, value.KindBigInt, value.KindBigDecimal, value.KindURI, value.KindRecord:
		b, err := value.Encode(v)
		if err != nil {
			return row{}, err
		}
		r.ValueObject = b
	default:
		return row{}, fmt.Errorf("archive: unsupported value kind %v", v.Kind)
	}
	return r, nil
}

// decodeRowValue recovers the value.Value a row carries, from whichever
// slot is populated.
func decodeRowValue(r row) (value.Value, error) {
	switch {
	case r.ValueInt != nil:
		return value.Int32(*r.ValueInt), nil
	case r.ValueLong != nil:
		return value.Int64(*r.ValueLong), nil
	case r.ValueFloat != nil:
		return value.Float32(*r.ValueFloat), nil
	case r.ValueDouble != nil:
		return value.Float64(*r.ValueDouble), nil
	case r.ValueString != nil:
		return value.String(*r.ValueString), nil
	case r.ValueBool != nil:
		return value.Bool(*r.ValueBool), nil
	case len(r.ValueObject) > 0:
		return value.Decode(r.ValueObject)
	default:
		return value.Value{}, fmt.Errorf("%w: row has no populated value slot", ErrInvariantViolation)
	}
}
