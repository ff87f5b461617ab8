package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/logging"
)

// Channels returns every topic the ledgers publish to
func Channels() []string {
	return []string{ChannelAssessment, ChannelMarket}
}

// Bus is an in-process event bus backed by a watermill go channel pub/sub.
// Each event is published on the topic named by its channel. Publish returns
// once every subscriber has handled the event, so subscribers see events in
// commit order and must not block.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewBus creates an event bus
func NewBus(logger *zap.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		BlockPublishUntilSubscriberAck: true,
	}, logging.NewWatermillAdapter(logger.Named("watermill")))

	return &Bus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Publish implements Publisher. Failures are logged; the ledger change the
// event describes is already committed.
func (b *Bus) Publish(_ context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", zap.Error(err), zap.String("event_type", event.Type))
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", event.Type)

	if err := b.pubsub.Publish(event.Channel, msg); err != nil {
		b.logger.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type))
	}
}

// Subscribe delivers events of one channel to handle, in publish order, until
// ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, channel string, handle func(Event)) error {
	messages, err := b.pubsub.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("Dropping malformed event", zap.Error(err), zap.String("message_uuid", msg.UUID))
				msg.Ack()
				continue
			}
			handle(event)
			msg.Ack()
		}
	}()
	return nil
}

// Close closes the pub/sub and waits for subscribers to drain
func (b *Bus) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
