package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/jobs"
)

// MessageHandler runs one decoded job message. A non-nil error asks for
// redelivery.
type MessageHandler interface {
	Handle(ctx context.Context, msg jobs.Message) error
}

// Consumer receives generation jobs from a Pub/Sub subscription.
type Consumer struct {
	client       *pubsub.Client
	subscriber   *pubsub.Subscriber
	subscription string
	dispatcher   *Dispatcher
	logger       zerolog.Logger
}

// ConsumerConfig wires a Consumer.
type ConsumerConfig struct {
	Config   Config
	Generate MessageHandler
	Logger   zerolog.Logger
}

// NewConsumer connects to Pub/Sub and prepares the subscriber. Nothing is
// received until Run.
func NewConsumer(ctx context.Context, cfg ConsumerConfig) (*Consumer, error) {
	wc := cfg.Config.withDefaults()

	client, err := pubsub.NewClient(ctx, wc.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	sub := client.Subscriber(wc.SubscriptionName)
	sub.ReceiveSettings.MaxOutstandingMessages = wc.MaxOutstandingMessages
	sub.ReceiveSettings.MaxExtension = wc.MaxExtension

	return &Consumer{
		client:       client,
		subscriber:   sub,
		subscription: wc.SubscriptionName,
		dispatcher:   NewDispatcher(cfg.Generate, wc.MaxDeliveryAttempts, cfg.Logger),
		logger:       cfg.Logger,
	}, nil
}

// Run receives until ctx is done. Cancellation is a clean stop and returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Str("subscription", c.subscription).Msg("receiving generation jobs")

	err := c.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		d := Delivery{ID: msg.ID, Data: msg.Data, PublishedAt: msg.PublishTime}
		if msg.DeliveryAttempt != nil {
			d.Attempt = *msg.DeliveryAttempt
		}
		if c.dispatcher.Dispatch(ctx, d) == Nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the Pub/Sub client.
func (c *Consumer) Close() error {
	return c.client.Close()
}

// Verdict says what to do with a delivery once it has been handled.
type Verdict int

const (
	Ack Verdict = iota
	Nack
)

func (v Verdict) String() string {
	if v == Nack {
		return "nack"
	}
	return "ack"
}

// Delivery is one received message, independent of the transport.
type Delivery struct {
	ID          string
	Data        []byte
	PublishedAt time.Time
	// Attempt is the 1-based delivery count, or 0 when the subscription has
	// no dead letter policy and the count is unknown.
	Attempt int
}

// Dispatcher decodes payloads and routes them by job type.
type Dispatcher struct {
	generate    MessageHandler
	maxAttempts int
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher. A handler error on the maxAttempts-th
// delivery drops the message; maxAttempts <= 0 retries forever.
func NewDispatcher(generate MessageHandler, maxAttempts int, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{generate: generate, maxAttempts: maxAttempts, logger: logger}
}

// Dispatch handles one delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, del Delivery) Verdict {
	start := time.Now()
	logger := d.logger.With().
		Str("message_id", del.ID).
		Int("attempt", del.Attempt).
		Logger()
	if !del.PublishedAt.IsZero() {
		logger = logger.With().Dur("queued_for", start.Sub(del.PublishedAt)).Logger()
	}

	var msg jobs.Message
	if err := json.Unmarshal(del.Data, &msg); err != nil {
		logger.Error().Err(err).Msg("dropping undecodable message")
		return Ack
	}
	logger = logger.With().Str("job_type", msg.JobType).Str("job_id", msg.JobID).Logger()

	if msg.JobType != jobs.JobTypeGenerate {
		logger.Warn().Msg("dropping message with unknown job type")
		return Ack
	}

	if err := d.generate.Handle(logger.WithContext(ctx), msg); err != nil {
		if d.maxAttempts > 0 && del.Attempt >= d.maxAttempts {
			logger.Error().Err(err).Msg("job failed on final delivery, dropping")
			return Ack
		}
		logger.Warn().Err(err).Msg("job interrupted, requesting redelivery")
		return Nack
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("job handled")
	return Ack
}
