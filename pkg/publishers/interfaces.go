// Package publishers announces journaled exchanges to external sinks:
// webhooks, SQS queues, SNS topics and Pub/Sub topics.
package publishers

import "context"

// Publisher delivers an exchange event to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
