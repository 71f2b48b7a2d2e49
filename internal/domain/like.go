package domain

import "time"

// Like records one user's like on a review or comment.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Target    Target    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult is returned by like and unlike. Created is true only when this
// call inserted the row; repeated likes report Liked with Created false.
type LikeResult struct {
	Liked     bool `json:"liked"`
	Created   bool `json:"created"`
	LikeCount int  `json:"like_count"`
}
