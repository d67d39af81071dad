// Package feed delivers live updates to connected clients over Redis
// pub/sub. Domain events reach it through Relay; HTTP handlers read from
// a Subscription and stream it as server-sent events.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
)

const subscriptionBuffer = 16

// Update types.
const (
	TypeComments = "comments"
	TypeCart     = "cart"
)

// Update is one notification on a feed channel.
type Update struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewUpdate encodes data into an update of the given type.
func NewUpdate(typ string, data any) (Update, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Update{}, fmt.Errorf("marshal %s update: %w", typ, err)
	}
	return Update{Type: typ, Data: raw}, nil
}

// CommentsChannel is the channel for rating and comment changes of an item.
func CommentsChannel(ref domain.ItemRef) string {
	return "feed:comments:" + string(ref.Kind) + ":" + ref.ID
}

// CartChannel is the channel for changes to a user's cart.
func CartChannel(userID string) string {
	return "feed:cart:" + userID
}

// Hub publishes and subscribes to feed channels.
type Hub struct {
	client *redis.Client
	logger *slog.Logger
}

// NewHub creates a hub on top of a Redis client.
func NewHub(client *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{client: client, logger: logger}
}

// Publish sends u to every current subscriber of channel.
func (h *Hub) Publish(ctx context.Context, channel string, u Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	if err := h.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	updatesPublished.WithLabelValues(u.Type).Inc()
	return nil
}

// Subscribe starts listening on channel. The subscription ends when Close
// is called or ctx is done; C is closed afterwards.
func (h *Hub) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ps := h.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Update, subscriptionBuffer)
	sub := &Subscription{
		C:       out,
		channel: channel,
		ps:      ps,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	activeSubscriptions.Inc()
	go sub.run(ctx, out, h.logger)
	return sub, nil
}

// Subscription is a live feed. Receive from C; call Close when done.
type Subscription struct {
	C <-chan Update

	channel   string
	ps        *redis.PubSub
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (s *Subscription) run(ctx context.Context, out chan<- Update, logger *slog.Logger) {
	defer close(s.done)
	defer close(out)
	defer activeSubscriptions.Dec()

	in := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			var u Update
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				logger.WarnContext(ctx, "dropping malformed feed message",
					slog.String("channel", s.channel),
					slog.String("error", err.Error()),
				)
				continue
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close ends the subscription and waits for its goroutine to exit. It is
// safe to call more than once.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.ps.Close()
		<-s.done
	})
	return s.closeErr
}
