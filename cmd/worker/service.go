package main

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/notifications"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
)

// service pumps domain events from the subscription into the consumer.
type service struct {
	consumer     *notifications.Consumer
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

func newService(consumer *notifications.Consumer, subscription *pubsub.Subscriber, logg *logger.Logger) (*service, error) {
	if consumer == nil {
		return nil, errors.New("notifications consumer is required")
	}
	if subscription == nil {
		return nil, errors.New("domain events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{consumer: consumer, subscription: subscription, logg: logg}, nil
}

// Run processes domain events until the context is canceled.
func (s *service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logCtx := s.logg.WithField(ctx, "message_id", msg.ID)

		var event events.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// Malformed payloads never become valid, drop them.
			s.logg.Warn(logCtx, "dropping undecodable domain event")
			msg.Ack()
			return
		}

		logCtx = s.logg.WithField(logCtx, "event_type", string(event.Type))
		if err := s.consumer.Handle(logCtx, event); err != nil {
			s.logg.Error(logCtx, "handle domain event", err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
