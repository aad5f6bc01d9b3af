package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/vidinfra/billsync/internal/config"
	"github.com/vidinfra/billsync/internal/logger"
	"github.com/vidinfra/billsync/internal/pubsub"
)

// publisher delivers notifications through a pubsub topic, fire and forget
type publisher struct {
	pubSub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewPublisher creates a pubsub-backed notifier
func NewPublisher(
	pubSub pubsub.Publisher,
	cfg *config.Configuration,
	logger *logger.Logger,
) Notifier {
	return &publisher{
		pubSub: pubSub,
		topic:  cfg.Notification.Topic,
		logger: logger,
	}
}

// InvoiceAvailable publishes the event. Failures are logged and swallowed so
// notification delivery can never fail or block a reconciliation sweep.
func (p *publisher) InvoiceAvailable(ctx context.Context, event *InvoiceAvailableEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Errorw("failed to marshal invoice notification",
			"event_id", event.ID,
			"invoice_id", event.InvoiceID,
			"error", err)
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("tenant_id", event.TenantID)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Warnw("failed to publish invoice notification",
			"event_id", event.ID,
			"invoice_id", event.InvoiceID,
			"topic", p.topic,
			"error", err)
		return
	}

	p.logger.Debugw("published invoice notification",
		"event_id", event.ID,
		"invoice_id", event.InvoiceID,
		"topic", p.topic)
}
