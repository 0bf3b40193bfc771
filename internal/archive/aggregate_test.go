package archive

import (
	"reflect"
	"testing"

	"github.com/linkedfactory/kvingo/internal/tuple"
	"github.com/linkedfactory/kvingo/internal/value"
)

func tupleAt(tm int64, seqNr int32, v float64) tuple.Tuple {
	return tuple.Tuple{
		Item:     "urn:item",
		Property: "urn:prop",
		Context:  "",
		Time:     tm,
		SeqNr:    seqNr,
		Value:    value.Float64(v),
	}
}

func TestAggregateNoneReturnsInputUnchanged(t *testing.T) {
	in := []tuple.Tuple{tupleAt(100, 0, 1), tupleAt(90, 0, 2)}
	out, err := aggregate(in, 100, 10, AggNone)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != len(in) || !reflect.DeepEqual(out[0], in[0]) || !reflect.DeepEqual(out[1], in[1]) {
		t.Fatalf("expected input unchanged, got %+v", out)
	}
}

func TestAggregateIntervalZeroIsSingleBucket(t *testing.T) {
	in := []tuple.Tuple{tupleAt(100, 0, 1), tupleAt(50, 0, 2), tupleAt(0, 0, 3)}
	out, err := aggregate(in, 100, 0, AggSum)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single bucket, got %d", len(out))
	}
	if out[0].Value.AsFloat64() != 6 {
		t.Errorf("sum: got %v, want 6", out[0].Value.AsFloat64())
	}
}

func TestAggregateBucketsByInterval(t *testing.T) {
	// end=100, interval=10: bucket index = (100-time)/10.
	in := []tuple.Tuple{
		tupleAt(100, 0, 1), // idx 0
		tupleAt(95, 0, 2),  // idx 0
		tupleAt(85, 0, 3),  // idx 1
	}
	out, err := aggregate(in, 100, 10, AggCount)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d: %+v", len(out), out)
	}
	if out[0].Value.AsFloat64() != 2 {
		t.Errorf("first bucket count: got %v, want 2", out[0].Value.AsFloat64())
	}
	if out[1].Value.AsFloat64() != 1 {
		t.Errorf("second bucket count: got %v, want 1", out[1].Value.AsFloat64())
	}
}

func TestAggregateMinMaxAvgSum(t *testing.T) {
	in := []tuple.Tuple{tupleAt(100, 0, 10), tupleAt(99, 0, 20), tupleAt(98, 0, 30)}
	cases := []struct {
		op   AggOp
		want float64
	}{
		{AggMin, 10},
		{AggMax, 30},
		{AggSum, 60},
		{AggAvg, 20},
	}
	for _, c := range cases {
		out, err := aggregate(in, 100, 0, c.op)
		if err != nil {
			t.Fatalf("%s: %v", c.op, err)
		}
		if got := out[0].Value.AsFloat64(); got != c.want {
			t.Errorf("%s: got %v, want %v", c.op, got, c.want)
		}
	}
}

// Tuples arrive ordered time-desc/seqNr-desc (resolveAndOrder's contract),
// so within a bucket the first tuple iterated is chronologically newest
// and the last iterated is chronologically oldest. AggFirst must surface
// the chronologically oldest ("first" in time) and AggLast the newest.
func TestAggregateFirstLastRespectsChronologicalOrder(t *testing.T) {
	in := []tuple.Tuple{tupleAt(100, 0, 3), tupleAt(90, 0, 2), tupleAt(80, 0, 1)}
	first, err := aggregate(in, 100, 0, AggFirst)
	if err != nil {
		t.Fatalf("AggFirst: %v", err)
	}
	if got := first[0].Value.AsFloat64(); got != 1 {
		t.Errorf("AggFirst: got %v, want 1 (the chronologically oldest value)", got)
	}

	last, err := aggregate(in, 100, 0, AggLast)
	if err != nil {
		t.Fatalf("AggLast: %v", err)
	}
	if got := last[0].Value.AsFloat64(); got != 3 {
		t.Errorf("AggLast: got %v, want 3 (the chronologically newest value)", got)
	}
}

func TestAggregateRejectsNegativeInterval(t *testing.T) {
	if _, err := aggregate([]tuple.Tuple{tupleAt(1, 0, 1)}, 1, -5, AggSum); err == nil {
		t.Fatal("expected an error for a negative interval")
	}
}

func TestAggregateRejectsNonNumericValueForNumericOp(t *testing.T) {
	in := []tuple.Tuple{{Item: "urn:item", Property: "urn:prop", Time: 1, Value: value.String("hi")}}
	if _, err := aggregate(in, 1, 1, AggSum); err == nil {
		t.Fatal("expected an error aggregating a non-numeric value with AggSum")
	}
}

func TestAggregateGroupsByPropertyAndContext(t *testing.T) {
	in := []tuple.Tuple{
		{Item: "urn:item", Property: "urn:p1", Context: "", Time: 100, Value: value.Float64(1)},
		{Item: "urn:item", Property: "urn:p2", Context: "", Time: 100, Value: value.Float64(2)},
		{Item: "urn:item", Property: "urn:p1", Context: "urn:c", Time: 100, Value: value.Float64(3)},
	}
	out, err := aggregate(in, 100, 0, AggCount)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 distinct buckets (one per property/context pair), got %d", len(out))
	}
}
