package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

// parseFields turns key=value and key:=json arguments into an ordered payload.
// No arguments yield a nil payload.
func parseFields(args []string) (transportclient.Payload, error) {
	if len(args) == 0 {
		return nil, nil
	}

	p := make(transportclient.Payload, 0, len(args))
	for _, arg := range args {
		if i := strings.Index(arg, ":="); i > 0 && i < strings.Index(arg+"=", "=") {
			key, raw := arg[:i], arg[i+2:]
			val, err := decodeScalar(raw)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			p = p.Set(key, val)
			continue
		}

		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (want key=value or key:=json)", arg)
		}
		p = p.Set(key, val)
	}
	return p, nil
}

// decodeScalar decodes a JSON scalar, keeping numbers exact.
func decodeScalar(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %q: %w", raw, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode %q: trailing data", raw)
	}
	switch v.(type) {
	case nil, bool, string, json.Number:
		return v, nil
	default:
		return nil, fmt.Errorf("decode %q: only scalar values are supported", raw)
	}
}
