package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

// Publisher sends generation messages to the worker queue.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// PubSubPublisher publishes to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// NewPubSubPublisher creates a publisher for topic.
func NewPubSubPublisher(ctx context.Context, projectID, topic string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubPublisher{client: client, publisher: client.Publisher(topic)}, nil
}

// Publish sends msg and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding job message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"job_type": msg.JobType},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing job %s: %w", msg.JobID, err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
