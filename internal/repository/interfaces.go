package repository

import (
	"context"

	"pantry-api/internal/model"
)

// InventoryRepository defines pantry inventory data access methods.
type InventoryRepository interface {
	// List returns every item, newest first.
	List(ctx context.Context) ([]model.InventoryItem, error)

	// Get returns one item or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.InventoryItem, error)

	// Create inserts an item and returns it as stored.
	Create(ctx context.Context, fields model.InventoryFields) (*model.InventoryItem, error)

	// Update replaces every writable field and returns the stored item.
	Update(ctx context.Context, id int64, fields model.InventoryFields) (*model.InventoryItem, error)

	// Delete removes an item or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored items.
	Count(ctx context.Context) (int64, error)
}

// ConversationRepository defines conversation data access methods.
type ConversationRepository interface {
	// List returns conversations matching filter, newest first.
	List(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, error)

	// Get returns one conversation or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Conversation, error)

	// Create inserts a conversation with zeroed rating accumulators.
	Create(ctx context.Context, c model.NewConversation) (*model.Conversation, error)

	// Update applies a partial update. A rating is added to the running
	// totals atomically in the same statement.
	Update(ctx context.Context, id int64, patch model.ConversationPatch) (*model.Conversation, error)

	// Delete removes a conversation or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored conversations.
	Count(ctx context.Context) (int64, error)
}
