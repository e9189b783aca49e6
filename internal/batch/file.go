// Package batch runs a file of calls through the dispatcher in order.
package batch

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

// Entry is one call declared in a batch file.
type Entry struct {
	ID      string      `yaml:"id"`
	Method  string      `yaml:"method"`
	URL     string      `yaml:"url"`
	Payload PayloadNode `yaml:"payload"`
	DelayMs int         `yaml:"delay_ms"`
}

type file struct {
	DelayMs int     `yaml:"delay_ms"`
	Calls   []Entry `yaml:"calls"`
}

// PayloadNode decodes a YAML or JSON mapping into a Payload, keeping key order.
type PayloadNode struct {
	transportclient.Payload
}

// UnmarshalYAML walks the mapping node pairwise so insertion order survives.
func (p *PayloadNode) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			p.Payload = nil
			return nil
		}
	case yaml.MappingNode:
		out := make(transportclient.Payload, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if valNode.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: payload field %q must be a scalar", valNode.Line, keyNode.Value)
			}
			var val any
			if err := valNode.Decode(&val); err != nil {
				return fmt.Errorf("line %d: payload field %q: %w", valNode.Line, keyNode.Value, err)
			}
			out = out.Set(keyNode.Value, val)
		}
		p.Payload = out
		return nil
	}
	return fmt.Errorf("line %d: payload must be a mapping", node.Line)
}

// Delay returns the pause taken before the entry runs.
func (e Entry) Delay() time.Duration {
	if e.DelayMs <= 0 {
		return 0
	}
	return time.Duration(e.DelayMs) * time.Millisecond
}

// Load reads a batch file. YAML and JSON are both accepted; JSON is decoded as
// YAML so object key order is preserved either way.
func Load(path string) ([]Entry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("batch file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes batch file contents. ext is used only to validate the format name.
func Parse(data []byte, ext string) ([]Entry, error) {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case "", ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("batch file format %q not recognized (expected YAML or JSON)", ext)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	if len(f.Calls) == 0 {
		return nil, errors.New("batch file contains no calls")
	}

	seen := make(map[string]struct{}, len(f.Calls))
	for i := range f.Calls {
		e := sanitizeEntry(f.Calls[i], i, f.DelayMs)
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("call[%d]: %w", i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate call id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		f.Calls[i] = e
	}
	return f.Calls, nil
}

func sanitizeEntry(e Entry, idx, fileDelayMs int) Entry {
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		e.ID = fmt.Sprintf("call-%d", idx+1)
	}
	e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
	if e.Method == "" {
		e.Method = http.MethodGet
	}
	e.URL = strings.TrimSpace(e.URL)
	if e.DelayMs <= 0 {
		e.DelayMs = max(fileDelayMs, 0)
	}
	return e
}

func validateEntry(e Entry) error {
	if e.URL == "" {
		return fmt.Errorf("url is required for call %q", e.ID)
	}
	if e.Method != http.MethodGet && e.Method != http.MethodPost {
		return fmt.Errorf("unsupported method %q for call %q", e.Method, e.ID)
	}
	return nil
}
