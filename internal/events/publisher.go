package events

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
)

type domainPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// Publisher pushes domain events onto the shared Pub/Sub topic.
type Publisher struct {
	pub  domainPublisher
	logg *logger.Logger
}

// NewPublisher wraps a Pub/Sub publisher handle.
func NewPublisher(pub *gcppubsub.Publisher, logg *logger.Logger) (*Publisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &Publisher{pub: pub, logg: logg}, nil
}

// Publish serializes the event and blocks until the broker acknowledges it.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.pub == nil {
		return fmt.Errorf("event publisher not initialized")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   event.ID.String(),
			"event_type": string(event.Type),
			"company_id": event.CompanyID.String(),
		},
	}

	if _, err := p.pub.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	if p.logg != nil {
		p.logg.Info(ctx, fmt.Sprintf("published domain event %s", event.Type))
	}
	return nil
}
