package transportclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Field is a single key/value entry of a Payload.
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered flat mapping of string keys to scalar values.
// Insertion order is preserved on the wire for both query strings and JSON bodies.
type Payload []Field

// NewPayload builds a payload from alternating key/value arguments.
// A trailing key without a value is stored with a nil value.
func NewPayload(kv ...any) Payload {
	p := make(Payload, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var val any
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		p = p.Set(key, val)
	}
	return p
}

// Set stores value under key, replacing an existing entry in place.
func (p Payload) Set(key string, value any) Payload {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the payload as a JSON object in insertion order.
// A nil payload encodes as null.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode payload field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeQuery renders the payload as a form-encoded query string.
// Booleans render as 1/0 and nil values are omitted.
func EncodeQuery(p Payload) string {
	parts := make([]string, 0, len(p))
	for _, f := range p {
		val, ok := queryValue(f.Value)
		if !ok {
			continue
		}
		parts = append(parts, url.QueryEscape(f.Key)+"="+url.QueryEscape(val))
	}
	return strings.Join(parts, "&")
}

func queryValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if val {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(val), true
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// buildURL appends the encoded payload to target. Nothing is appended when the
// payload encodes to an empty query.
func buildURL(target string, p Payload) string {
	q := EncodeQuery(p)
	if q == "" {
		return target
	}
	return target + "?" + q
}
