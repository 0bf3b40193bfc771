// Package lineprotocol parses the Influx-style line-protocol text
// format named informally in spec.md §6, turning lines into
// tuple.Tuple values ready for Store.Put.
package lineprotocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/linkedfactory/kvingo/internal/tuple"
	"github.com/linkedfactory/kvingo/internal/value"
)

// DefaultContext is used for every parsed tuple; line protocol carries
// no context component.
const DefaultContext = ""

// Parse parses content (one line per tuple group, trailing newline
// optional) into tuples. now is used as the wall-clock fallback for
// lines with no explicit timestamp (spec.md §6).
func Parse(content string, now time.Time) ([]tuple.Tuple, error) {
	var out []tuple.Tuple
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tuples, err := parseLine(line, now)
		if err != nil {
			return nil, fmt.Errorf("lineprotocol: %w", err)
		}
		out = append(out, tuples...)
	}
	return out, nil
}

// parseLine parses one line of the form:
//
//	measurement,tag=val[,tag=val...] field=value[,field=value...] [timestamp_ns]
//
// measurement,tags become the property URI and item URI (via the
// "item" tag, per spec.md §6's line-protocol summary); every other
// field becomes its own tuple sharing the timestamp.
func parseLine(line string, now time.Time) ([]tuple.Tuple, error) {
	fields := splitUnescaped(line, ' ')
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed line: %q", line)
	}
	property, item, err := parseMeasurementAndTags(fields[0])
	if err != nil {
		return nil, err
	}

	fieldSet := fields[1]
	t := now.Unix()
	if len(fields) >= 3 {
		ns, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed timestamp %q: %w", fields[2], err)
		}
		t = ns / 1_000_000_000
	}

	values, err := parseFieldSet(fieldSet)
	if err != nil {
		return nil, err
	}

	tuples := make([]tuple.Tuple, 0, len(values))
	for _, fv := range values {
		tuples = append(tuples, tuple.Tuple{
			Item:     item,
			Property: property,
			Context:  DefaultContext,
			Time:     t,
			SeqNr:    0,
			Value:    fv,
		})
	}
	return tuples, nil
}

// parseMeasurementAndTags splits "measurement,tag=val,..." and pulls
// out the "item" tag as the tuple's item URI; the measurement itself
// is the property URI.
func parseMeasurementAndTags(s string) (property, item string, err error) {
	parts := splitUnescaped(s, ',')
	property = unescape(parts[0])
	for _, tag := range parts[1:] {
		kv := strings.SplitN(tag, "=", 2)
		if len(kv) != 2 {
			return "", "", fmt.Errorf("malformed tag %q", tag)
		}
		if unescape(kv[0]) == "item" {
			item = unescape(kv[1])
		}
	}
	if item == "" {
		return "", "", fmt.Errorf("missing item tag in %q", s)
	}
	return property, item, nil
}

// parseFieldSet parses "field=value[,field=value...]" into typed
// values. Typed suffixes: i=int64, unsuffixed number=float64,
// t/f=bool, "..."=quoted string (spec.md §6).
func parseFieldSet(s string) ([]value.Value, error) {
	parts := splitUnescaped(s, ',')
	out := make([]value.Value, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed field %q", part)
		}
		v, err := parseFieldValue(kv[1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", kv[0], err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFieldValue(raw string) (value.Value, error) {
	switch {
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return value.String(unescapeQuoted(raw[1 : len(raw)-1])), nil
	case raw == "t" || raw == "true" || raw == "T" || raw == "True":
		return value.Bool(true), nil
	case raw == "f" || raw == "false" || raw == "F" || raw == "False":
		return value.Bool(false), nil
	case strings.HasSuffix(raw, "i"):
		n, err := strconv.ParseInt(raw[:len(raw)-1], 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int64(n), nil
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float64(f), nil
	}
}

// splitUnescaped splits s on sep, skipping occurrences preceded by an
// odd number of backslashes (line protocol's escaping rule for
// ',', '=', and space).
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	backslashes := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			backslashes++
		case sep:
			if backslashes%2 == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
			backslashes = 0
		default:
			backslashes = 0
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// unescape removes backslash-escaping of ',', '=', and space in an
// unquoted token (tags, measurement, field names).
func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case ',', '=', ' ':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeQuoted undoes backslash-escaping inside a quoted string
// field value: \\, \t, \", \=, and \, per spec.md §6's scenario S2.
func unescapeQuoted(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '"':
				b.WriteByte('"')
				i++
				continue
			case '=':
				b.WriteByte('=')
				i++
				continue
			case ',':
				b.WriteByte(',')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
