package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	pkgkafka "github.com/Penlika/CoffeeShopApp/pkg/kafka"
)

// RelayGroup is the Kafka consumer group of the feed relay.
const RelayGroup = "feed-relay"

// RelayTopics lists the topics the relay consumes.
func RelayTopics() []string {
	return []string{event.TopicRatingUpdated, event.TopicCart}
}

// Publisher sends an update to a feed channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, u Update) error
}

// CommentsUpdate is sent on an item's comments channel.
type CommentsUpdate struct {
	Kind          domain.ItemKind `json:"kind"`
	ItemID        string          `json:"item_id"`
	AverageRating float64         `json:"average_rating"`
	RatingsCount  int             `json:"ratings_count"`
}

// CartUpdate is sent on a user's cart channel.
type CartUpdate struct {
	Lines []domain.CartLine `json:"lines"`
	Total float64           `json:"total"`
}

// Relay turns domain events into feed updates.
type Relay struct {
	hub    Publisher
	logger *slog.Logger
}

// NewRelay creates a relay publishing through hub.
func NewRelay(hub Publisher, logger *slog.Logger) *Relay {
	return &Relay{hub: hub, logger: logger}
}

// Handle is a pkgkafka.Handler. Unknown event types are ignored.
func (r *Relay) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	var (
		channel string
		update  Update
		err     error
	)

	switch evt.EventType {
	case event.TypeRatingUpdated:
		var data event.RatingUpdatedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode %s: %w", evt.EventType, err)
		}
		channel = CommentsChannel(domain.ItemRef{Kind: data.Kind, ID: data.ItemID})
		update, err = NewUpdate(TypeComments, CommentsUpdate{
			Kind:          data.Kind,
			ItemID:        data.ItemID,
			AverageRating: data.AverageRating,
			RatingsCount:  data.RatingsCount,
		})

	case event.TypeCartUpdated:
		var data event.CartUpdatedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode %s: %w", evt.EventType, err)
		}
		lines := data.Lines
		if lines == nil {
			lines = []domain.CartLine{}
		}
		channel = CartChannel(data.UserID)
		update, err = NewUpdate(TypeCart, CartUpdate{Lines: lines, Total: data.Total})

	case event.TypeCartCleared:
		var data event.CartClearedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode %s: %w", evt.EventType, err)
		}
		channel = CartChannel(data.UserID)
		update, err = NewUpdate(TypeCart, CartUpdate{Lines: []domain.CartLine{}})

	default:
		r.logger.DebugContext(ctx, "relay ignoring event", slog.String("event_type", evt.EventType))
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.hub.Publish(ctx, channel, update); err != nil {
		return err
	}
	relayedEvents.WithLabelValues(evt.EventType).Inc()
	return nil
}
