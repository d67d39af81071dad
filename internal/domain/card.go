package domain

import "time"

// CardDetails is a card as entered by the user. Only the holder, the last
// four digits and the expiry are ever persisted.
type CardDetails struct {
	Number     string `json:"card_number" validate:"required,cardnumber"`
	HolderName string `json:"card_holder_name" validate:"required,max=100"`
	Expiry     string `json:"expiry_date" validate:"required,expiry"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

// Mask reduces the details to the storable form.
func (d CardDetails) Mask(userID string, now time.Time) *SavedCard {
	last4 := d.Number
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	return &SavedCard{
		UserID:     userID,
		HolderName: d.HolderName,
		Last4:      last4,
		Expiry:     d.Expiry,
		UpdatedAt:  now,
	}
}

// SavedCard is the masked card kept for a user.
type SavedCard struct {
	UserID     string    `json:"-"`
	HolderName string    `json:"card_holder_name"`
	Last4      string    `json:"last4"`
	Expiry     string    `json:"expiry_date"`
	UpdatedAt  time.Time `json:"updated_at"`
}
