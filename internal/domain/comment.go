package domain

import "time"

// MaxRating is the highest star rating a user can give.
const MaxRating = 5

// Comment is one user's rating and comment on an item. A rating of 0
// means the user left a comment without rating.
type Comment struct {
	ID        string    `json:"id"`
	Kind      ItemKind  `json:"kind"`
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the address of the commented item.
func (c *Comment) Ref() ItemRef {
	return ItemRef{Kind: c.Kind, ID: c.ItemID}
}

// RatingSummary is the aggregate kept on an item.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int     `json:"ratings_count"`
}

// Session identifies the signed-in caller of a service operation.
type Session struct {
	UserID string
	Email  string
}

// Anonymous reports whether no user is signed in.
func (s Session) Anonymous() bool {
	return s.UserID == ""
}
