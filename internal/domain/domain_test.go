package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseItemKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseItemKind("beans")
	assert.Error(t, err)
}

func TestItem_Variant(t *testing.T) {
	item := Item{Prices: []PriceVariant{
		{Size: "S", Price: 3},
		{Size: "M", Price: 4},
	}}

	v, ok := item.Variant("")
	require.True(t, ok)
	assert.Equal(t, "S", v.Size)

	v, ok = item.Variant("M")
	require.True(t, ok)
	assert.Equal(t, 4.0, v.Price)

	_, ok = item.Variant("XL")
	assert.False(t, ok)

	_, ok = (&Item{}).Variant("")
	assert.False(t, ok)
}

func TestItemRef_String(t *testing.T) {
	assert.Equal(t, "tea/chai", ItemRef{Kind: KindTea, ID: "chai"}.String())
}

func TestCardDetails_Mask(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	card := CardDetails{
		Number:     "4111111111111234",
		HolderName: "Ada Lovelace",
		Expiry:     "09/27",
		CVV:        "123",
	}.Mask("user-1", now)

	assert.Equal(t, &SavedCard{
		UserID:     "user-1",
		HolderName: "Ada Lovelace",
		Last4:      "1234",
		Expiry:     "09/27",
		UpdatedAt:  now,
	}, card)
}

func TestOrder_CanTransitionTo(t *testing.T) {
	o := Order{PaymentStatus: PaymentPending, TotalAmount: decimal.RequireFromString("4.50")}
	assert.True(t, o.CanTransitionTo(PaymentCompleted))
	assert.True(t, o.CanTransitionTo(PaymentCanceled))
	assert.False(t, o.CanTransitionTo(PaymentPending))

	o.PaymentStatus = PaymentCompleted
	assert.False(t, o.CanTransitionTo(PaymentFailed))
}

func TestSession_Anonymous(t *testing.T) {
	assert.True(t, Session{}.Anonymous())
	assert.False(t, Session{UserID: "u"}.Anonymous())
}
