package jsonformat

import (
	"sort"
	"testing"

	"github.com/linkedfactory/kvingo/internal/value"
)

func TestParseSimpleItemPropertyValue(t *testing.T) {
	doc := []byte(`{
		"urn:item1": {
			"urn:prop1": [
				{"value": 42, "time": 1000},
				{"value": 43, "time": 2000, "seqNr": 1}
			]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tuples) != 2 {
		t.Fatalf("expected 2 tuples, got %d: %+v", len(tuples), tuples)
	}
	sort.Slice(tuples, func(i, j int) bool { return tuples[i].Time < tuples[j].Time })
	if tuples[0].Item != "urn:item1" || tuples[0].Property != "urn:prop1" {
		t.Errorf("unexpected item/property: %+v", tuples[0])
	}
	if tuples[0].Time != 1000 || tuples[0].Value.Kind != value.KindInt32 || tuples[0].Value.I32 != 42 {
		t.Errorf("tuple 0: got %+v", tuples[0])
	}
	if tuples[1].Time != 2000 || tuples[1].SeqNr != 1 || tuples[1].Value.I32 != 43 {
		t.Errorf("tuple 1: got %+v", tuples[1])
	}
}

func TestParseContextPrefixExpansion(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "http://example.com/"},
		"ex:item1": {
			"ex:prop1": [{"value": "hi", "time": 1}]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple, got %d", len(tuples))
	}
	if tuples[0].Item != "http://example.com/item1" {
		t.Errorf("item: got %q", tuples[0].Item)
	}
	if tuples[0].Property != "http://example.com/prop1" {
		t.Errorf("property: got %q", tuples[0].Property)
	}
}

func TestParseNestedContextOverridesOuter(t *testing.T) {
	doc := []byte(`{
		"@context": {"ex": "http://outer/"},
		"ex:item1": {
			"@context": {"ex": "http://inner/"},
			"ex:prop1": [{"value": 1, "time": 1}]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// collectContext walks the whole document and merges in document
	// order, so the later (nested) "ex" mapping wins everywhere,
	// including for the "ex:item1" key itself, per spec.md §6.
	if tuples[0].Item != "http://inner/item1" {
		t.Errorf("item: got %q, want the inner @context to win", tuples[0].Item)
	}
}

func TestParseObjectWithIDBecomesURI(t *testing.T) {
	doc := []byte(`{
		"urn:item1": {
			"urn:prop1": [{"value": {"@id": "urn:other", "label": "ignored"}, "time": 1}]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v := tuples[0].Value
	if v.Kind != value.KindURI || v.URI != "urn:other" {
		t.Errorf("expected a URI value for an @id-bearing object, got %+v", v)
	}
}

func TestParseObjectWithoutIDBecomesRecord(t *testing.T) {
	doc := []byte(`{
		"urn:item1": {
			"urn:prop1": [{"value": {"urn:a": 1}, "time": 1}]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v := tuples[0].Value
	if v.Kind != value.KindRecord {
		t.Fatalf("expected a Record value, got %+v", v)
	}
	if len(v.Rec.Entries) != 1 || v.Rec.Entries[0].Property != "urn:a" {
		t.Errorf("unexpected record entries: %+v", v.Rec)
	}
}

func TestParseLargeIntegerBecomesBigInt(t *testing.T) {
	doc := []byte(`{
		"urn:item1": {
			"urn:prop1": [{"value": 123456789012345678901234567890, "time": 1}]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tuples[0].Value.Kind != value.KindBigInt {
		t.Fatalf("expected a BigInt value, got %+v", tuples[0].Value)
	}
}

func TestParseFloatBecomesFloat64(t *testing.T) {
	doc := []byte(`{
		"urn:item1": {
			"urn:prop1": [{"value": 1.5, "time": 1}]
		}
	}`)
	tuples, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tuples[0].Value.Kind != value.KindFloat64 || tuples[0].Value.F64 != 1.5 {
		t.Errorf("expected float64 1.5, got %+v", tuples[0].Value)
	}
}
