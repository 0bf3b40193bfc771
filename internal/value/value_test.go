package value

import (
	"math"
	"math/big"
	"testing"
)

func TestIsNumeric(t *testing.T) {
	numeric := []Value{Int32(1), Int64(1), Float32(1), Float64(1), Short(1), BigInt([]byte{1}), Decimal(BigDecimal{})}
	for _, v := range numeric {
		if !v.IsNumeric() {
			t.Errorf("%v: expected IsNumeric true", v.Kind)
		}
	}
	nonNumeric := []Value{String("x"), Bool(true), URI("urn:x"), RecordValue(Record{})}
	for _, v := range nonNumeric {
		if v.IsNumeric() {
			t.Errorf("%v: expected IsNumeric false", v.Kind)
		}
	}
}

func TestAsFloat64(t *testing.T) {
	if got := Int64(42).AsFloat64(); got != 42 {
		t.Errorf("Int64: got %v", got)
	}
	if got := Float32(1.5).AsFloat64(); got != 1.5 {
		t.Errorf("Float32: got %v", got)
	}

	// 200 is 0xC8, whose top bit is set, so its two's-complement form
	// needs a leading 0x00 sign byte.
	big200 := big.NewInt(200)
	if got := BigInt(append([]byte{0x00}, big200.Bytes()...)).AsFloat64(); got != 200 {
		t.Errorf("BigInt positive: got %v", got)
	}

	negBytes := twosComplementBytes(t, -200)
	if got := BigInt(negBytes).AsFloat64(); got != -200 {
		t.Errorf("BigInt negative: got %v", got)
	}

	dec := BigDecimal{Unscaled: big.NewInt(12345).Bytes(), Scale: 2}
	if got := Decimal(dec).AsFloat64(); math.Abs(got-123.45) > 1e-9 {
		t.Errorf("BigDecimal: got %v", got)
	}
}

func TestAsFloat64PanicsOnNonNumeric(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-numeric AsFloat64")
		}
	}()
	String("x").AsFloat64()
}

// twosComplementBytes returns the minimal two's-complement big-endian
// encoding of a negative int64, with an explicit sign byte when needed.
func twosComplementBytes(t *testing.T, n int64) []byte {
	t.Helper()
	if n >= 0 {
		t.Fatalf("twosComplementBytes: n must be negative, got %d", n)
	}
	bi := big.NewInt(n)
	// big.Int.Bytes() returns the absolute value; build two's complement
	// manually over enough bytes to hold the magnitude plus a sign bit.
	abs := new(big.Int).Abs(bi)
	nBytes := (abs.BitLen() + 8) / 8
	if nBytes == 0 {
		nBytes = 1
	}
	buf := make([]byte, nBytes)
	absBytes := abs.Bytes()
	copy(buf[len(buf)-len(absBytes):], absBytes)
	// two's complement: invert and add one
	carry := true
	for i := len(buf) - 1; i >= 0; i-- {
		v := ^buf[i]
		if carry {
			v++
			carry = v == 0
		}
		buf[i] = v
	}
	return buf
}
