package publishers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported sink types.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
	httpMaxRetries            = 5
)

// Notify selects which exchanges a sink hears about.
type Notify string

const (
	// NotifyAll delivers every exchange.
	NotifyAll Notify = "all"
	// NotifyFailures delivers exchanges that ended in a transport error.
	NotifyFailures Notify = "failures"
	// NotifyErrors delivers transport errors and 4xx/5xx responses.
	NotifyErrors Notify = "errors"
)

func (n Notify) valid() bool {
	switch n {
	case NotifyAll, NotifyFailures, NotifyErrors:
		return true
	}
	return false
}

// Config is one sink declared in the publishers file.
type Config struct {
	ID      string        `json:"id" yaml:"id"`
	Type    string        `json:"type" yaml:"type"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	Notify  Notify        `json:"notify" yaml:"notify"`
	HTTP    *HTTPConfig   `json:"http" yaml:"http"`
	SQS     *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials pins static keys instead of the default credential chain.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// HTTPConfig describes a webhook sink.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	Retries        int               `json:"retries" yaml:"retries"`
}

// SQSConfig describes an SQS queue sink. MessageGroupID applies to FIFO queues only.
type SQSConfig struct {
	QueueURL       string          `json:"queue_url" yaml:"queue_url"`
	Region         string          `json:"region" yaml:"region"`
	MessageGroupID string          `json:"message_group_id" yaml:"message_group_id"`
	Credentials    *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSConfig describes an SNS topic sink. MessageGroupID applies to FIFO topics only.
type SNSConfig struct {
	TopicARN       string          `json:"topic_arn" yaml:"topic_arn"`
	Region         string          `json:"region" yaml:"region"`
	MessageGroupID string          `json:"message_group_id" yaml:"message_group_id"`
	Credentials    *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// PubSubConfig describes a GCP Pub/Sub topic sink.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// IsEnabled reports the enabled flag, which defaults to true.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoadFile reads sink definitions from a YAML or JSON file.
func LoadFile(path string) ([]Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes and validates sink definitions. ext picks the decoder.
func Parse(data []byte, ext string) ([]Config, error) {
	var doc struct {
		Publishers []Config `json:"publishers" yaml:"publishers"`
	}

	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json publishers: %w", err)
		}
	case "", ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml publishers: %w", err)
		}
	default:
		return nil, fmt.Errorf("publishers file format %q not recognized (expected YAML or JSON)", ext)
	}

	if len(doc.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]struct{}, len(doc.Publishers))
	for i := range doc.Publishers {
		cfg := &doc.Publishers[i]
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
	}
	return doc.Publishers, nil
}

// Enabled filters out disabled sinks.
func Enabled(cfgs []Config) []Config {
	out := make([]Config, 0, len(cfgs))
	for _, c := range cfgs {
		if c.IsEnabled() {
			out = append(out, c)
		}
	}
	return out
}

func (c *Config) normalize() {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	c.Notify = Notify(strings.ToLower(strings.TrimSpace(string(c.Notify))))
	if c.Notify == "" {
		c.Notify = NotifyAll
	}

	if h := c.HTTP; h != nil {
		h.URL = strings.TrimSpace(h.URL)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = httpDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		if h.Retries < 0 {
			h.Retries = 0
		}
		h.Headers = trimHeaders(h.Headers)
	}
	if q := c.SQS; q != nil {
		q.QueueURL = strings.TrimSpace(q.QueueURL)
		q.Region = strings.TrimSpace(q.Region)
		q.MessageGroupID = strings.TrimSpace(q.MessageGroupID)
	}
	if s := c.SNS; s != nil {
		s.TopicARN = strings.TrimSpace(s.TopicARN)
		s.Region = strings.TrimSpace(s.Region)
		s.MessageGroupID = strings.TrimSpace(s.MessageGroupID)
	}
	if p := c.PubSub; p != nil {
		p.ProjectID = strings.TrimSpace(p.ProjectID)
		p.Topic = strings.TrimSpace(p.Topic)
		p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
		p.Endpoint = strings.TrimSpace(p.Endpoint)
	}
}

func trimHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c Config) validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if !c.Notify.valid() {
		return fmt.Errorf("publisher %q: notify must be one of all, failures, errors (got %q)", c.ID, c.Notify)
	}

	var missing string
	switch c.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", c.ID)
	case TypeHTTP:
		switch {
		case c.HTTP == nil:
			missing = "http"
		case c.HTTP.URL == "":
			missing = "http.url"
		case c.HTTP.Retries > httpMaxRetries:
			return fmt.Errorf("publisher %q: http.retries must not exceed %d", c.ID, httpMaxRetries)
		}
	case TypeSQS:
		switch {
		case c.SQS == nil:
			missing = "sqs"
		case c.SQS.QueueURL == "":
			missing = "sqs.queue_url"
		case c.SQS.Region == "":
			missing = "sqs.region"
		}
	case TypeSNS:
		switch {
		case c.SNS == nil:
			missing = "sns"
		case c.SNS.TopicARN == "":
			missing = "sns.topic_arn"
		case c.SNS.Region == "":
			missing = "sns.region"
		}
	case TypePubSub:
		switch {
		case c.PubSub == nil:
			missing = "pubsub"
		case c.PubSub.ProjectID == "":
			missing = "pubsub.project_id"
		case c.PubSub.Topic == "":
			missing = "pubsub.topic"
		}
	default:
		return fmt.Errorf("publisher %q: unknown type %q", c.ID, c.Type)
	}

	if missing != "" {
		return fmt.Errorf("%s is required for publisher %q", missing, c.ID)
	}
	return nil
}
