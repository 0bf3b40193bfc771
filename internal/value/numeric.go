package value

import "math/big"

func bigIntToFloat64(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	f := new(big.Float).SetInt(new(big.Int).SetBytes(twosComplementAbs(b)))
	if b[0]&0x80 != 0 {
		f.Neg(f)
	}
	v, _ := f.Float64()
	return v
}

func twosComplementAbs(b []byte) []byte {
	if len(b) == 0 || b[0]&0x80 == 0 {
		return b
	}
	out := make([]byte, len(b))
	carry := true
	for i := len(b) - 1; i >= 0; i-- {
		v := ^b[i]
		if carry {
			v++
			carry = v == 0
		}
		out[i] = v
	}
	return out
}

func bigDecimalToFloat64(d BigDecimal) float64 {
	unscaled := bigIntToFloat64(d.Unscaled)
	if d.Scale == 0 {
		return unscaled
	}
	scale := new(big.Float).SetFloat64(1)
	ten := big.NewFloat(10)
	for i := int8(0); i < d.Scale; i++ {
		scale.Mul(scale, ten)
	}
	for i := d.Scale; i < 0; i++ {
		scale.Quo(scale, ten)
	}
	res := new(big.Float).Quo(big.NewFloat(unscaled), scale)
	v, _ := res.Float64()
	return v
}
