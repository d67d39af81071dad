package domain

import "time"

// Favorite marks an item the user wants quick access to.
type Favorite struct {
	UserID    string    `json:"user_id"`
	Kind      ItemKind  `json:"kind"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteItem is a favorite joined with the current item document.
type FavoriteItem struct {
	Item
	FavoritedAt time.Time `json:"favorited_at"`
}
