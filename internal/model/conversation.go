package model

import "time"

// Conversation is a stored chat transcript with its sharing and rating state.
type Conversation struct {
	ID            int64     `json:"id"`
	Conversation  string    `json:"conversation"`
	CreatedAt     time.Time `json:"created_at"`
	IsSaved       bool      `json:"is_saved"`
	IsShared      bool      `json:"is_shared"`
	RatingSum     float64   `json:"rating_sum"`
	RatingCount   int64     `json:"rating_count"`
	AverageRating float64   `json:"average_rating"`
	PhotoBase64   *string   `json:"photo_base64,omitempty"`
	Title         *string   `json:"title,omitempty"`
}

// ComputeAverage fills AverageRating from the running sum and count.
func (c *Conversation) ComputeAverage() {
	if c.RatingCount == 0 {
		c.AverageRating = 0
		return
	}
	c.AverageRating = c.RatingSum / float64(c.RatingCount)
}

// NewConversation holds the fields set when a conversation is created.
type NewConversation struct {
	Conversation string
	Title        *string
	PhotoBase64  *string
	CreatedAt    time.Time
}

// ConversationPatch is a partial update. Nil fields are left untouched;
// Rating adds one rating to the running sum.
type ConversationPatch struct {
	IsSaved     *bool
	IsShared    *bool
	Rating      *float64
	PhotoBase64 *string
	Title       *string
}

// Empty reports whether the patch changes nothing.
func (p ConversationPatch) Empty() bool {
	return p.IsSaved == nil && p.IsShared == nil && p.Rating == nil &&
		p.PhotoBase64 == nil && p.Title == nil
}

// ConversationFilter narrows a conversation listing.
type ConversationFilter struct {
	SavedOnly  bool
	SharedOnly bool
}

// CreateConversationRequest is the JSON body for POST /api/conversations.
type CreateConversationRequest struct {
	Conversation string  `json:"conversation" validate:"required"`
	Title        *string `json:"title" validate:"omitempty,max=255"`
	PhotoBase64  *string `json:"photo_base64" validate:"omitempty,photo"`
}

// UpdateConversationRequest is the JSON body for PUT /api/conversations/{id}.
type UpdateConversationRequest struct {
	IsSaved     *bool    `json:"is_saved"`
	IsShared    *bool    `json:"is_shared"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0"`
	PhotoBase64 *string  `json:"photo_base64" validate:"omitempty,photo"`
	Title       *string  `json:"title" validate:"omitempty,max=255"`
}

// Patch converts the request into a store patch.
func (r UpdateConversationRequest) Patch() ConversationPatch {
	return ConversationPatch{
		IsSaved:     r.IsSaved,
		IsShared:    r.IsShared,
		Rating:      r.Rating,
		PhotoBase64: r.PhotoBase64,
		Title:       r.Title,
	}
}
