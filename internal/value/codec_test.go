package value

import (
	"errors"
	"strings"
	"testing"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	b, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode(%v): %v", v, err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode(%x): %v", b, err)
	}
	return got
}

func TestCodecRoundTripScalars(t *testing.T) {
	cases := []Value{
		Int32(-7),
		Int64(1 << 40),
		Float32(3.5),
		Float64(-2.25),
		String("hello, world"),
		String(""),
		Bool(true),
		Bool(false),
		Short(-1),
		BigInt([]byte{0x7f, 0xff, 0xff, 0xff}),
		Decimal(BigDecimal{Unscaled: []byte{0x01, 0x00}, Scale: 2}),
		URI("http://example.org/item/1"),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		if !got.Equal(v) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, v)
		}
	}
}

func TestCodecRoundTripRecordFlat(t *testing.T) {
	rec := Record{}.
		Append("urn:p1", String("v1")).
		Append("urn:p2", Int32(42))
	v := RecordValue(rec)
	got := roundTrip(t, v)
	if !got.Equal(v) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, v)
	}
	if got.Kind != KindRecord || len(got.Rec.Entries) != 2 {
		t.Fatalf("expected 2-entry record, got %+v", got)
	}
}

func TestCodecRoundTripRecordNested(t *testing.T) {
	inner := Record{}.
		Append("urn:a", String("x")).
		Append("urn:b", URI("urn:target"))
	outer := Record{}.
		Append("urn:p1", String("v1")).
		Append("urn:nested", RecordValue(inner)).
		Append("urn:p3", Bool(true))
	v := RecordValue(outer)
	got := roundTrip(t, v)
	if !got.Equal(v) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
	}
	nestedEntry := got.Rec.Entries[1]
	if nestedEntry.Value.Kind != KindRecord || len(nestedEntry.Value.Rec.Entries) != 2 {
		t.Fatalf("expected nested record with 2 entries, got %+v", nestedEntry)
	}
}

func TestCodecEncodePropertyTooLong(t *testing.T) {
	rec := Record{}.Append(strings.Repeat("p", 256), Int32(1))
	_, err := Encode(RecordValue(rec))
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestCodecEncodeURITooLong(t *testing.T) {
	_, err := Encode(URI(strings.Repeat("u", 256)))
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestCodecDecodeTruncated(t *testing.T) {
	cases := [][]byte{
		{},
		{tagInt32, 0x00, 0x00},
		{tagString, 0x00, 0x00, 0x00, 0x05, 'h', 'i'},
		{tagRecordFrame, 0x03, 'a', 'b'},
		{0xAA},
	}
	for _, b := range cases {
		if _, err := Decode(b); !errors.Is(err, ErrDecoding) {
			t.Errorf("Decode(%x): expected ErrDecoding, got %v", b, err)
		}
	}
}

func TestCodecDecodeTrailingBytes(t *testing.T) {
	b, err := Encode(Int32(1))
	if err != nil {
		t.Fatal(err)
	}
	b = append(b, 0x00)
	if _, err := Decode(b); !errors.Is(err, ErrDecoding) {
		t.Fatalf("expected ErrDecoding on trailing bytes, got %v", err)
	}
}
