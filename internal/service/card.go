package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/repository"
	"github.com/Penlika/CoffeeShopApp/pkg/validator"
)

// CardService stores the caller's card in masked form.
type CardService struct {
	cards  repository.CardRepository
	logger *slog.Logger
}

// NewCardService creates a new card service.
func NewCardService(cards repository.CardRepository, logger *slog.Logger) *CardService {
	return &CardService{
		cards:  cards,
		logger: logger,
	}
}

// Save validates the details and replaces the caller's saved card. The full
// number and the CVV are discarded.
func (s *CardService) Save(ctx context.Context, sess domain.Session, details domain.CardDetails) (*domain.SavedCard, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	details.Number = strings.ReplaceAll(strings.TrimSpace(details.Number), " ", "")
	details.HolderName = strings.TrimSpace(details.HolderName)
	details.Expiry = strings.TrimSpace(details.Expiry)
	details.CVV = strings.TrimSpace(details.CVV)
	if err := validator.Validate(details); err != nil {
		return nil, err
	}

	card := details.Mask(sess.UserID, time.Now().UTC())
	if err := s.cards.Save(ctx, card); err != nil {
		return nil, storeError("save card", "card", sess.UserID, err)
	}

	s.logger.InfoContext(ctx, "card saved",
		slog.String("user_id", sess.UserID),
		slog.String("last4", card.Last4),
	)
	return card, nil
}

// Get returns the caller's saved card.
func (s *CardService) Get(ctx context.Context, sess domain.Session) (*domain.SavedCard, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	card, err := s.cards.Get(ctx, sess.UserID)
	if err != nil {
		return nil, storeError("get card", "card", sess.UserID, err)
	}
	return card, nil
}
