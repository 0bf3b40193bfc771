package archive

import (
	"fmt"

	"github.com/linkedfactory/kvingo/internal/tuple"
	"github.com/linkedfactory/kvingo/internal/value"
)

// AggOp is the aggregation operator a ranged fetch may apply, mirroring
// spec.md §4.1's nullable op: the empty string means "no aggregation".
type AggOp string

const (
	AggNone  AggOp = ""
	AggMin   AggOp = "min"
	AggMax   AggOp = "max"
	AggAvg   AggOp = "avg"
	AggSum   AggOp = "sum"
	AggCount AggOp = "count"
	AggFirst AggOp = "first"
	AggLast  AggOp = "last"
)

func (op AggOp) numeric() bool {
	switch op {
	case AggMin, AggMax, AggAvg, AggSum:
		return true
	default:
		return false
	}
}

// bucketKey groups rows for aggregation: one bucket per (property,
// context, interval index), item is constant across a single fetch.
type bucketKey struct {
	property string
	context  string
	index    int64
}

type bucketState struct {
	key       bucketKey
	count     int64
	sum       float64
	min       float64
	max       float64
	first     tuple.Tuple
	last      tuple.Tuple
	haveFirst bool
}

// aggregate buckets tuples (already ordered time desc/seqNr desc by
// resolveAndOrder) into interval-wide windows measured back from end,
// per spec.md §4.6: bucket index = floor((end - time) / interval).
// Invariant (spec.md §9): end >= begin is required whenever op != "",
// enforced by the caller before aggregate is invoked.
func aggregate(tuples []tuple.Tuple, end, interval int64, op AggOp) ([]tuple.Tuple, error) {
	if op == AggNone {
		return tuples, nil
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: interval must be non-negative", ErrInvalidWindow)
	}

	order := make([]bucketKey, 0)
	buckets := make(map[bucketKey]*bucketState)

	for _, t := range tuples {
		if op.numeric() && !t.Value.IsNumeric() {
			return nil, fmt.Errorf("%w: op %q on non-numeric value kind %v", ErrUnsupportedAggregation, op, t.Value.Kind)
		}
		// interval == 0 means one bucket spanning the whole window (spec.md §4.6).
		var idx int64
		if interval > 0 {
			idx = (end - t.Time) / interval
		}
		key := bucketKey{property: t.Property, context: t.Context, index: idx}
		st, ok := buckets[key]
		if !ok {
			st = &bucketState{key: key, min: t.Value.AsFloat64OrZero(), max: t.Value.AsFloat64OrZero()}
			buckets[key] = st
			order = append(order, key)
		}
		st.count++
		if op.numeric() {
			f := t.Value.AsFloat64()
			st.sum += f
			if f < st.min {
				st.min = f
			}
			if f > st.max {
				st.max = f
			}
		}
		if !st.haveFirst {
			st.first = t
			st.haveFirst = true
		}
		st.last = t // tuples arrive time-desc, so "last" seen is chronologically first
	}

	out := make([]tuple.Tuple, 0, len(order))
	for _, key := range order {
		st := buckets[key]
		bucketTime := end - st.key.index*interval
		rep := st.first // newest tuple in the bucket carries item/property/context
		v, err := reduceBucket(st, op)
		if err != nil {
			return nil, err
		}
		out = append(out, tuple.Tuple{
			Item:     rep.Item,
			Property: rep.Property,
			Context:  rep.Context,
			Time:     bucketTime,
			SeqNr:    0,
			Value:    v,
		})
	}
	return out, nil
}

func reduceBucket(st *bucketState, op AggOp) (value.Value, error) {
	switch op {
	case AggMin:
		return value.Float64(st.min), nil
	case AggMax:
		return value.Float64(st.max), nil
	case AggSum:
		return value.Float64(st.sum), nil
	case AggAvg:
		return value.Float64(st.sum / float64(st.count)), nil
	case AggCount:
		return value.Int64(st.count), nil
	case AggFirst:
		return st.last.Value, nil // chronologically first = last tuple seen in desc order
	case AggLast:
		return st.first.Value, nil // chronologically last = first tuple seen in desc order
	default:
		return value.Value{}, fmt.Errorf("%w: unknown op %q", ErrUnsupportedAggregation, op)
	}
}
