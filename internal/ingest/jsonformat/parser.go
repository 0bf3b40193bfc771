// Package jsonformat parses the nested-object JSON tuple format named
// in spec.md §6, grounded on the original Java JsonFormatParser's
// item -> property -> value-array walk and its @id/@context handling.
package jsonformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/linkedfactory/kvingo/internal/tuple"
	"github.com/linkedfactory/kvingo/internal/value"
)

// DefaultContext is used for every parsed tuple; the JSON format
// carries no context component of its own.
const DefaultContext = ""

// Parse decodes content (the whole document) into tuples. Top-level
// fields are item URIs (after @context prefix expansion); each maps to
// an object of property URIs, each mapping to an array of
// {value, time, seqNr?} (spec.md §6).
func Parse(content []byte) ([]tuple.Tuple, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("jsonformat: %w", err)
	}

	ctxMap, err := collectContext(content)
	if err != nil {
		return nil, fmt.Errorf("jsonformat: %w", err)
	}

	var out []tuple.Tuple
	for rawItem, itemBody := range doc {
		if rawItem == "@context" {
			continue
		}
		item := expandPrefix(rawItem, ctxMap)

		var props map[string]json.RawMessage
		if err := json.Unmarshal(itemBody, &props); err != nil {
			return nil, fmt.Errorf("jsonformat: item %q: %w", rawItem, err)
		}
		for rawProp, entriesRaw := range props {
			if rawProp == "@context" {
				continue
			}
			property := expandPrefix(rawProp, ctxMap)

			var entries []jsonEntry
			if err := json.Unmarshal(entriesRaw, &entries); err != nil {
				return nil, fmt.Errorf("jsonformat: item %q property %q: %w", rawItem, rawProp, err)
			}
			for _, e := range entries {
				v, err := nodeToValue(e.Value, ctxMap)
				if err != nil {
					return nil, fmt.Errorf("jsonformat: item %q property %q: %w", rawItem, rawProp, err)
				}
				out = append(out, tuple.Tuple{
					Item:     item,
					Property: property,
					Context:  DefaultContext,
					Time:     e.Time,
					SeqNr:    e.SeqNr,
					Value:    v,
				})
			}
		}
	}
	return out, nil
}

// jsonEntry is one element of a property's value array.
type jsonEntry struct {
	Value json.RawMessage `json:"value"`
	Time  int64           `json:"time"`
	SeqNr int32           `json:"seqNr"`
}

// collectContext walks the whole document collecting every "@context"
// object's entries, in document order, later ones overriding earlier
// (spec.md §6): a single top-level @context, or one nested within any
// item object, are both honored.
func collectContext(content []byte) (map[string]string, error) {
	merged := map[string]string{}
	dec := json.NewDecoder(bytes.NewReader(content))
	var walk func() error
	walk = func() error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case json.Delim:
			if t == '{' {
				for dec.More() {
					keyTok, err := dec.Token()
					if err != nil {
						return err
					}
					key, _ := keyTok.(string)
					if key == "@context" {
						var m map[string]string
						if err := dec.Decode(&m); err != nil {
							return err
						}
						for k, v := range m {
							merged[k] = v
						}
						continue
					}
					if err := walk(); err != nil {
						return err
					}
				}
				// consume closing '}'
				if _, err := dec.Token(); err != nil {
					return err
				}
			} else if t == '[' {
				for dec.More() {
					if err := walk(); err != nil {
						return err
					}
				}
				if _, err := dec.Token(); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(); err != nil {
		return nil, err
	}
	return merged, nil
}

// expandPrefix rewrites "prefix:local" into ctxMap["prefix"]+"local"
// when prefix is a known @context key; anything else (already a full
// URI, or an unknown prefix) passes through unchanged.
func expandPrefix(s string, ctxMap map[string]string) string {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return s
	}
	prefix, local := s[:idx], s[idx+1:]
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "urn:") {
		return s
	}
	if base, ok := ctxMap[prefix]; ok {
		return base + local
	}
	return s
}

// nodeToValue mirrors JsonFormatParser.nodeToValue's type dispatch:
// an object with "@id" becomes a URI value; any other object becomes a
// Record; numbers/bools/strings pass through with Go-idiomatic numeric
// sizing (JSON carries no int32/int64/float32 distinction, so integers
// that fit int32 use Int32, larger ones Int64, and any value with a
// fraction or exponent uses Float64; integers beyond int64 become BigInt).
func nodeToValue(raw json.RawMessage, ctxMap map[string]string) (value.Value, error) {
	var probe interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&probe); err != nil {
		return value.Value{}, err
	}
	return convert(probe, ctxMap)
}

func convert(node interface{}, ctxMap map[string]string) (value.Value, error) {
	switch n := node.(type) {
	case nil:
		return value.Value{}, fmt.Errorf("null value")
	case bool:
		return value.Bool(n), nil
	case string:
		return value.String(n), nil
	case json.Number:
		return numberToValue(n)
	case map[string]interface{}:
		if id, ok := n["@id"]; ok {
			idStr, ok := id.(string)
			if !ok {
				return value.Value{}, fmt.Errorf("@id must be a string")
			}
			return value.URI(expandPrefix(idStr, ctxMap)), nil
		}
		rec := value.Record{}
		for k, v := range n {
			if k == "@context" {
				continue
			}
			ev, err := convert(v, ctxMap)
			if err != nil {
				return value.Value{}, err
			}
			rec = rec.Append(expandPrefix(k, ctxMap), ev)
		}
		return value.RecordValue(rec), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported JSON node type %T", node)
	}
}

func numberToValue(n json.Number) (value.Value, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return value.Value{}, err
		}
		return value.Float64(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		// Too large for int64: carry it as a big-integer value rather
		// than failing the whole document.
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return value.Value{}, fmt.Errorf("malformed integer %q", s)
		}
		return value.BigInt(twosComplement(bi)), nil
	}
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return value.Int32(int32(i)), nil
	}
	return value.Int64(i), nil
}

// twosComplement renders bi as two's-complement big-endian bytes,
// matching the KindBigInt wire form internal/value's codec expects. The
// result is minimal-length except for negative values whose magnitude
// has its top bit set (e.g. -128), which get one extra sign byte. big.Int.Bytes() only ever returns the magnitude, so
// negative values need an explicit sign-extension step.
func twosComplement(bi *big.Int) []byte {
	if bi.Sign() >= 0 {
		mag := bi.Bytes()
		if len(mag) == 0 {
			return []byte{0}
		}
		if mag[0]&0x80 != 0 {
			return append([]byte{0}, mag...)
		}
		return mag
	}
	// Two's complement of a negative number: invert and add one to the
	// magnitude, padded to cover the sign bit.
	mag := new(big.Int).Neg(bi).Bytes()
	width := len(mag)
	if width == 0 || mag[0]&0x80 == 0 {
		width = len(mag)
	} else {
		width = len(mag) + 1
	}
	buf := make([]byte, width)
	copy(buf[width-len(mag):], mag)
	for i := range buf {
		buf[i] = ^buf[i]
	}
	carry := byte(1)
	for i := len(buf) - 1; i >= 0 && carry > 0; i-- {
		sum := buf[i] + carry
		buf[i] = sum
		if sum != 0 {
			carry = 0
		}
	}
	return buf
}
