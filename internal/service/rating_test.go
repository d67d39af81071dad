package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/event"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

var latteRef = domain.ItemRef{Kind: domain.KindCoffee, ID: "C1"}

func newLatte() *domain.Item {
	return &domain.Item{
		ID:   "C1",
		Kind: domain.KindCoffee,
		Name: "Cappuccino",
		Prices: []domain.PriceVariant{
			{Size: "S", Price: 2.5, Currency: "$"},
			{Size: "M", Price: 3.5, Currency: "$"},
		},
	}
}

type ratingFixture struct {
	svc      *RatingService
	items    *mockItemRepository
	comments *fakeCommentRepository
	events   *mockEventPublisher
	item     *domain.Item
}

func newRatingFixture(t *testing.T) *ratingFixture {
	t.Helper()
	item := newLatte()
	f := &ratingFixture{
		items:    new(mockItemRepository),
		comments: newFakeCommentRepository(item),
		events:   new(mockEventPublisher),
		item:     item,
	}
	f.svc = NewRatingService(f.items, f.comments, f.events, newTestLogger())
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *ratingFixture) seed(userID string, r int) {
	f.comments.comments[latteRef] = append(f.comments.comments[latteRef], domain.Comment{
		ID:     "c-" + userID,
		Kind:   latteRef.Kind,
		ItemID: latteRef.ID,
		UserID: userID,
		Email:  userID + "@example.com",
		Rating: r,
	})
}

func session(userID string) domain.Session {
	return domain.Session{UserID: userID, Email: userID + "@example.com"}
}

// --- SubmitRating ---

func TestSubmitRating_NewRatingUpdatesAggregate(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 5)
	f.seed("u2", 4)
	f.seed("u3", 4)
	f.events.On("PublishRatingUpdated", mock.Anything, mock.MatchedBy(func(d event.RatingUpdatedData) bool {
		return d.ItemID == "C1" && d.UserID == "u4" && d.RatingsCount == 4 && !d.Deleted
	})).Return(nil).Once()

	res, err := f.svc.SubmitRating(context.Background(), session("u4"), latteRef, "  Great  ", 1)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, 3.5, res.Summary.AverageRating)
	assert.Equal(t, 4, res.Summary.RatingsCount)
	require.Len(t, res.Comments, 4)
	assert.Equal(t, "u4", res.Comments[0].UserID)
	assert.Equal(t, "Great", res.Comments[0].Comment)
	assert.Equal(t, "u4@example.com", res.Comments[0].Email)

	assert.Equal(t, 3.5, f.item.AverageRating)
	assert.Equal(t, 4, f.item.RatingsCount)
	f.events.AssertExpectations(t)
}

func TestSubmitRating_ResubmissionReplacesOwnRecord(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 5)
	f.seed("u2", 2)
	f.events.On("PublishRatingUpdated", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.SubmitRating(context.Background(), session("u2"), latteRef, "changed my mind", 4)
	require.NoError(t, err)

	assert.Equal(t, 4.5, res.Summary.AverageRating)
	assert.Equal(t, 2, res.Summary.RatingsCount)
	assert.Len(t, f.comments.comments[latteRef], 2)
	assert.Equal(t, "c-u2", res.Comments[0].ID, "existing record keeps its id")
}

func TestSubmitRating_CommentOnlyDoesNotCount(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 3)
	f.events.On("PublishRatingUpdated", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.SubmitRating(context.Background(), session("u2"), latteRef, "smells nice", 0)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, 3.0, res.Summary.AverageRating)
	assert.Equal(t, 1, res.Summary.RatingsCount)
	assert.Len(t, res.Comments, 2)
}

func TestSubmitRating_BlankIsNoOp(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 3)

	res, err := f.svc.SubmitRating(context.Background(), session("u2"), latteRef, "   ", 0)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, 3.0, res.Summary.AverageRating)
	assert.Len(t, f.comments.comments[latteRef], 1)
	f.events.AssertNotCalled(t, "PublishRatingUpdated", mock.Anything, mock.Anything)
}

func TestSubmitRating_RequiresSession(t *testing.T) {
	f := newRatingFixture(t)

	_, err := f.svc.SubmitRating(context.Background(), domain.Session{}, latteRef, "hi", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Zero(t, f.comments.calls)
}

func TestSubmitRating_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		ref   domain.ItemRef
		value int
	}{
		{"rating too high", latteRef, 6},
		{"negative rating", latteRef, -1},
		{"unknown kind", domain.ItemRef{Kind: "pastry", ID: "P1"}, 3},
		{"missing id", domain.ItemRef{Kind: domain.KindTea}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRatingFixture(t)
			_, err := f.svc.SubmitRating(context.Background(), session("u1"), tt.ref, "x", tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			assert.Zero(t, f.comments.calls)
		})
	}
}

func TestSubmitRating_UnknownItem(t *testing.T) {
	f := newRatingFixture(t)

	_, err := f.svc.SubmitRating(context.Background(), session("u1"), domain.ItemRef{Kind: domain.KindTea, ID: "T9"}, "x", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSubmitRating_StoreFailure(t *testing.T) {
	f := newRatingFixture(t)
	f.comments.err = fmt.Errorf("begin tx: %w", errors.New("connection refused"))

	_, err := f.svc.SubmitRating(context.Background(), session("u1"), latteRef, "x", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.Equal(t, 503, apperrors.HTTPStatus(err))
}

func TestSubmitRating_PublishFailureIsNotSurfaced(t *testing.T) {
	f := newRatingFixture(t)
	f.events.On("PublishRatingUpdated", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	res, err := f.svc.SubmitRating(context.Background(), session("u1"), latteRef, "", 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Summary.AverageRating)
}

// --- DeleteRating ---

func TestDeleteRating_RecomputesOverRemainder(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 5)
	f.seed("u2", 4)
	f.seed("u3", 1)
	f.events.On("PublishRatingUpdated", mock.Anything, mock.MatchedBy(func(d event.RatingUpdatedData) bool {
		return d.Deleted && d.RatingsCount == 2
	})).Return(nil).Once()

	res, err := f.svc.DeleteRating(context.Background(), session("u1"), latteRef)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, 2.5, res.Summary.AverageRating)
	assert.Equal(t, 2, res.Summary.RatingsCount)
	assert.Len(t, f.comments.comments[latteRef], 2)
	f.events.AssertExpectations(t)
}

func TestDeleteRating_MissingRecordIsNoOp(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 4)

	res, err := f.svc.DeleteRating(context.Background(), session("u2"), latteRef)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, 4.0, res.Summary.AverageRating)
	f.events.AssertNotCalled(t, "PublishRatingUpdated", mock.Anything, mock.Anything)
}

// --- ListComments ---

func TestListComments_OwnFirstWithStoredAggregate(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 5)
	f.seed("u2", 3)
	f.seed("u3", 4)
	f.item.AverageRating = 4
	f.item.RatingsCount = 3
	f.items.On("Get", mock.Anything, latteRef).Return(f.item, nil)

	res, err := f.svc.ListComments(context.Background(), session("u3"), latteRef)
	require.NoError(t, err)

	assert.Equal(t, domain.RatingSummary{AverageRating: 4, RatingsCount: 3}, res.Summary)
	ids := []string{res.Comments[0].UserID, res.Comments[1].UserID, res.Comments[2].UserID}
	assert.Equal(t, []string{"u3", "u1", "u2"}, ids)
}

func TestListComments_Anonymous(t *testing.T) {
	f := newRatingFixture(t)
	f.seed("u1", 5)
	f.seed("u2", 3)
	f.items.On("Get", mock.Anything, latteRef).Return(f.item, nil)

	res, err := f.svc.ListComments(context.Background(), domain.Session{}, latteRef)
	require.NoError(t, err)
	assert.Equal(t, "u1", res.Comments[0].UserID)
}

func TestListComments_ItemNotFound(t *testing.T) {
	f := newRatingFixture(t)
	f.items.On("Get", mock.Anything, latteRef).Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.ListComments(context.Background(), domain.Session{}, latteRef)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}
