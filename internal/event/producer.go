package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	pkgkafka "github.com/Penlika/CoffeeShopApp/pkg/kafka"
	"github.com/Penlika/CoffeeShopApp/pkg/logger"
)

// Kafka topics for storefront domain events. Both cart event types share
// TopicCart, keyed by user ID, so one partition keeps a user's updates and
// clears in order.
var (
	TopicRatingUpdated = pkgkafka.Topic("rating", "updated")
	TopicCart          = pkgkafka.Topic("cart", "events")
	TopicOrderPlaced   = pkgkafka.Topic("order", "placed")
)

// Event types carried in the envelope.
const (
	TypeRatingUpdated = "rating.updated"
	TypeCartUpdated   = "cart.updated"
	TypeCartCleared   = "cart.cleared"
	TypeOrderPlaced   = "order.placed"
)

// Aggregate types.
const (
	AggregateTypeItem  = "item"
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// Source identifies events published by this service.
const Source = "coffeeshop-api"

// RatingUpdatedData is the payload for a rating.updated event.
type RatingUpdatedData struct {
	Kind          domain.ItemKind `json:"kind"`
	ItemID        string          `json:"item_id"`
	UserID        string          `json:"user_id"`
	AverageRating float64         `json:"average_rating"`
	RatingsCount  int             `json:"ratings_count"`
	Deleted       bool            `json:"deleted"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID    string            `json:"user_id"`
	Lines     []domain.CartLine `json:"lines"`
	LineCount int               `json:"line_count"`
	Total     float64           `json:"total"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	ProviderOrderID string          `json:"provider_order_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency"`
	LineCount       int             `json:"line_count"`
}

// Publisher is the part of pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishRatingUpdated publishes a rating.updated event.
func (p *Producer) PublishRatingUpdated(ctx context.Context, data RatingUpdatedData) error {
	ref := domain.ItemRef{Kind: data.Kind, ID: data.ItemID}
	return p.publish(ctx, TopicRatingUpdated, TypeRatingUpdated, ref.String(), AggregateTypeItem, data)
}

// PublishCartUpdated publishes a cart.updated event with the full cart.
func (p *Producer) PublishCartUpdated(ctx context.Context, userID string, cart domain.Cart) error {
	data := CartUpdatedData{
		UserID:    userID,
		Lines:     cart.Lines,
		LineCount: len(cart.Lines),
		Total:     cart.Total,
	}
	return p.publish(ctx, TopicCart, TypeCartUpdated, userID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	data := CartClearedData{UserID: userID}
	return p.publish(ctx, TopicCart, TypeCartCleared, userID, AggregateTypeCart, data)
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	data := OrderPlacedData{
		OrderID:         order.ID,
		UserID:          order.UserID,
		ProviderOrderID: order.ProviderOrderID,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		LineCount:       len(order.Items),
	}
	return p.publish(ctx, TopicOrderPlaced, TypeOrderPlaced, order.ID, AggregateTypeOrder, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "domain event published",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
