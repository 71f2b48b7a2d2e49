package domain

import "time"

// Interaction is one user's state for one book. A row with no flag set and
// no rating is logically absent and is pruned rather than stored.
type Interaction struct {
	UserID             string    `json:"user_id"`
	BookID             string    `json:"book_id"`
	IsRead             bool      `json:"is_read"`
	IsCurrentlyReading bool      `json:"is_currently_reading"`
	IsOnWatchlist      bool      `json:"is_on_watchlist"`
	IsLiked            bool      `json:"is_liked"`
	IsOwned            bool      `json:"is_owned"`
	Rating             *int      `json:"rating,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewInteraction returns the empty state for (userID, bookID).
func NewInteraction(userID, bookID string) *Interaction {
	return &Interaction{UserID: userID, BookID: bookID}
}

// IsEmpty reports whether the row carries no information.
func (i *Interaction) IsEmpty() bool {
	return !i.IsRead && !i.IsCurrentlyReading && !i.IsOnWatchlist &&
		!i.IsLiked && !i.IsOwned && i.Rating == nil
}

// RetainsRating reports whether a rating should survive review deletion.
// Currently-reading deliberately does not count.
func (i *Interaction) RetainsRating() bool {
	return i.IsRead || i.IsOnWatchlist || i.IsLiked || i.IsOwned
}

// InteractionPatch is a partial update. Nil fields are left unchanged.
type InteractionPatch struct {
	IsRead             *bool `json:"is_read,omitempty"`
	IsCurrentlyReading *bool `json:"is_currently_reading,omitempty"`
	IsOnWatchlist      *bool `json:"is_on_watchlist,omitempty"`
	IsLiked            *bool `json:"is_liked,omitempty"`
	IsOwned            *bool `json:"is_owned,omitempty"`
	Rating             *int  `json:"rating,omitempty"`
	ClearRating        bool  `json:"clear_rating,omitempty"`
}

// Apply merges p into i.
func (i *Interaction) Apply(p InteractionPatch) {
	if p.IsRead != nil {
		i.IsRead = *p.IsRead
	}
	if p.IsCurrentlyReading != nil {
		i.IsCurrentlyReading = *p.IsCurrentlyReading
	}
	if p.IsOnWatchlist != nil {
		i.IsOnWatchlist = *p.IsOnWatchlist
	}
	if p.IsLiked != nil {
		i.IsLiked = *p.IsLiked
	}
	if p.IsOwned != nil {
		i.IsOwned = *p.IsOwned
	}
	if p.ClearRating {
		i.Rating = nil
	} else if p.Rating != nil {
		r := *p.Rating
		i.Rating = &r
	}
}
