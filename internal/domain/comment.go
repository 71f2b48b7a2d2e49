package domain

import (
	"fmt"
	"time"
)

// TargetKind names the entity a comment or like is attached to.
type TargetKind string

const (
	TargetReview  TargetKind = "review"
	TargetList    TargetKind = "list"
	TargetComment TargetKind = "comment"
)

// Target identifies the entity a comment thread or like hangs off.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// ReviewTarget is shorthand for a review target.
func ReviewTarget(reviewID string) Target { return Target{Kind: TargetReview, ID: reviewID} }

// ListTarget is shorthand for a list target.
func ListTarget(listID string) Target { return Target{Kind: TargetList, ID: listID} }

// CommentTarget is shorthand for a comment target (likes only).
func CommentTarget(commentID string) Target { return Target{Kind: TargetComment, ID: commentID} }

// ValidForComment reports whether comments can be posted on t.
func (t Target) ValidForComment() bool {
	return t.ID != "" && (t.Kind == TargetReview || t.Kind == TargetList)
}

// ValidForLike reports whether t can be liked.
func (t Target) ValidForLike() bool {
	return t.ID != "" && (t.Kind == TargetReview || t.Kind == TargetComment)
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// TombstoneText replaces the body of a deleted comment that still has replies.
const TombstoneText = "[deleted]"

// CommentState is the lifecycle state of a comment.
//
//	Active --delete(no replies)--> removed
//	Active --delete(has replies)--> Tombstoned
//	Tombstoned --delete(has replies)--> Tombstoned
//	Tombstoned --delete(no replies)--> removed
type CommentState string

const (
	CommentActive     CommentState = "active"
	CommentTombstoned CommentState = "tombstoned"
)

// DeleteOutcome is the result of an owner delete.
type DeleteOutcome int

const (
	// DeleteRemoved means the row is gone.
	DeleteRemoved DeleteOutcome = iota
	// DeleteTombstoned means the row stays with its text replaced.
	DeleteTombstoned
)

func (o DeleteOutcome) String() string {
	if o == DeleteTombstoned {
		return "tombstoned"
	}
	return "removed"
}

// ThreadPosition is either top-level or a reply to a top-level comment.
// The zero value is top-level.
type ThreadPosition struct {
	parentID string
}

// TopLevel is the position of a comment with no parent.
func TopLevel() ThreadPosition { return ThreadPosition{} }

// ReplyTo is the position of a reply under parentID.
func ReplyTo(parentID string) ThreadPosition { return ThreadPosition{parentID: parentID} }

// IsReply reports whether the position is a reply.
func (p ThreadPosition) IsReply() bool { return p.parentID != "" }

// ParentID returns the top-level parent, or "" for top-level comments.
func (p ThreadPosition) ParentID() string { return p.parentID }

// Comment is a message on a review or list. Threads are two levels deep:
// a top-level comment and its direct replies.
type Comment struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Target    Target       `json:"target"`
	ParentID  *string      `json:"parent_comment_id,omitempty"`
	Text      string       `json:"text"`
	State     CommentState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`

	User          *UserSummary `json:"user,omitempty"`
	LikeCount     int          `json:"like_count"`
	LikedByViewer bool         `json:"liked_by_viewer"`
	ReplyCount    int          `json:"reply_count"`
	Replies       []*Comment   `json:"replies,omitempty"`
}

// Position returns the comment's place in its thread.
func (c *Comment) Position() ThreadPosition {
	if c.ParentID == nil {
		return TopLevel()
	}
	return ReplyTo(*c.ParentID)
}

// Place moves c to p.
func (c *Comment) Place(p ThreadPosition) {
	if !p.IsReply() {
		c.ParentID = nil
		return
	}
	parent := p.parentID
	c.ParentID = &parent
}

// ReplyPosition is where a reply to c goes. Replying to a reply joins the
// same top-level thread so depth never exceeds one.
func (c *Comment) ReplyPosition() ThreadPosition {
	if pos := c.Position(); pos.IsReply() {
		return pos
	}
	return ReplyTo(c.ID)
}
