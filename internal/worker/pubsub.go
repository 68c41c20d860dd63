package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Trigger job types.
const (
	// JobTypeDailyPipeline is the scheduled daily trigger.
	JobTypeDailyPipeline = "daily_pipeline"

	// JobTypeHealthCheck runs the gate without pipeline side effects.
	JobTypeHealthCheck = "health_check"
)

// TriggerMessage is the Cloud Scheduler trigger payload.
type TriggerMessage struct {
	JobType string `json:"job_type"`
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Runner           *PipelineRunner
	Logger           zerolog.Logger
}

// PubSubHandler consumes pipeline trigger messages.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runner           *PipelineRunner
	logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One trigger at a time: the gate is cheap but the decision must not
	// race a redelivered trigger for the same day.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runner:           cfg.Runner,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing trigger messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pipeline trigger handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var trigger TriggerMessage
	if err := json.Unmarshal(msg.Data, &trigger); err != nil {
		logger.Error().Err(err).Msg("failed to parse trigger message")
		msg.Nack()
		return
	}

	var err error
	switch trigger.JobType {
	case JobTypeDailyPipeline:
		_, err = h.runner.RunDaily(ctx)
	case JobTypeHealthCheck:
		// Ad-hoc probe; a dated ID would overwrite today's gate record.
		h.runner.Probe(ctx, "probe-"+uuid.NewString())
	default:
		logger.Warn().Str("job_type", trigger.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", trigger.JobType).Msg("trigger handling failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", trigger.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("trigger handled")

	msg.Ack()
}

// TopicPublisher publishes to one Pub/Sub topic. It backs the proceed and
// buffer-deploy publishers.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher creates a publisher for the given topic.
func NewTopicPublisher(client *pubsub.Client, topic string) *TopicPublisher {
	return &TopicPublisher{publisher: client.Publisher(topic)}
}

// Publish sends one message and waits for the server ack.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing message: %w", err)
	}
	return nil
}
