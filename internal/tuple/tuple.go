// Package tuple defines the atomic record the archive stores and queries.
package tuple

import "github.com/linkedfactory/kvingo/internal/value"

// Tuple is (item, property, context, time, seqNr, value) per spec.md §3.
// Item/Property/Context are URI strings; equality is byte-identical,
// normalization is the caller's responsibility.
type Tuple struct {
	Item     string
	Property string
	Context  string
	Time     int64 // seconds, wall time, >= 0
	SeqNr    int32 // tie-breaker within the same Time
	Value    value.Value
}
