package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published by the ledgers
const (
	EventAssessmentSubmitted  = "assessment.submitted"
	EventAssessmentVerified   = "assessment.verified"
	EventListingCreated       = "listing.created"
	EventListingPurchased     = "listing.purchased"
	EventListingStatusChanged = "listing.status_changed"
)

// Channels group events by the ledger that produced them
const (
	ChannelAssessment = "assessment"
	ChannelMarket     = "market"
)

// Event is a committed ledger change, also used as the websocket message format
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel"`
	Source    string         `json:"source"` // caller identity
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent stamps a new event with an id and the current time
func NewEvent(eventType, channel, source string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Channel:   channel,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher receives events after the change they describe has been committed.
// Publish runs while the ledger still holds its write lock, so events arrive
// in commit order. Implementations must not block or call back into the ledger.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
