package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"pantry-api/internal/database"
	"pantry-api/internal/model"
)

var conversationColumns = []string{
	"id", "conversation", "created_at", "is_saved", "is_shared",
	"rating_sum", "rating_count", "photo", "title",
}

// SQLConversationRepository implements ConversationRepository on any supported dialect.
type SQLConversationRepository struct {
	t table[model.Conversation]
}

// NewSQLConversationRepository creates a conversation repository on the shared pool.
func NewSQLConversationRepository(pool *database.Pool) *SQLConversationRepository {
	return &SQLConversationRepository{
		t: newTable(pool, database.ConversationsTable, conversationColumns, scanConversation),
	}
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var (
		c     model.Conversation
		photo sql.NullString
		title sql.NullString
	)
	err := row.Scan(&c.ID, &c.Conversation, &c.CreatedAt, &c.IsSaved, &c.IsShared,
		&c.RatingSum, &c.RatingCount, &photo, &title)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.PhotoBase64 = nullString(photo)
	c.Title = nullString(title)
	c.ComputeAverage()
	return &c, nil
}

// List returns conversations, newest first.
func (r *SQLConversationRepository) List(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, error) {
	where := sq.Eq{}
	if filter.SavedOnly {
		where["is_saved"] = true
	}
	if filter.SharedOnly {
		where["is_shared"] = true
	}

	var cond sq.Sqlizer
	if len(where) > 0 {
		cond = where
	}
	convs, err := r.t.list(ctx, cond)
	return convs, wrap(ErrQueryFailed, "list conversations", err)
}

// Get returns one conversation.
func (r *SQLConversationRepository) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	c, err := r.t.get(ctx, id)
	return c, wrap(ErrQueryFailed, "get conversation", err)
}

// Create inserts a conversation with zeroed accumulators.
func (r *SQLConversationRepository) Create(ctx context.Context, nc model.NewConversation) (*model.Conversation, error) {
	createdAt := nc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	q := r.t.sql.Insert(database.ConversationsTable).
		Columns("conversation", "created_at", "is_saved", "is_shared", "rating_sum", "rating_count", "photo", "title").
		Values(nc.Conversation, createdAt.UTC(), false, false, 0.0, 0, nc.PhotoBase64, nc.Title)

	c, err := r.t.insert(ctx, q)
	return c, wrap(ErrWriteFailed, "create conversation", err)
}

// Update applies patch. An empty patch returns the current record.
func (r *SQLConversationRepository) Update(ctx context.Context, id int64, p model.ConversationPatch) (*model.Conversation, error) {
	if p.Empty() {
		return r.Get(ctx, id)
	}

	q := r.t.sql.Update(database.ConversationsTable).Where(sq.Eq{"id": id})
	if p.IsSaved != nil {
		q = q.Set("is_saved", *p.IsSaved)
	}
	if p.IsShared != nil {
		q = q.Set("is_shared", *p.IsShared)
	}
	if p.Rating != nil {
		q = q.Set("rating_sum", sq.Expr("rating_sum + ?", *p.Rating)).
			Set("rating_count", sq.Expr("rating_count + 1"))
	}
	if p.PhotoBase64 != nil {
		q = q.Set("photo", *p.PhotoBase64)
	}
	if p.Title != nil {
		q = q.Set("title", *p.Title)
	}

	c, err := r.t.update(ctx, id, q)
	return c, wrap(ErrWriteFailed, "update conversation", err)
}

// Delete removes a conversation.
func (r *SQLConversationRepository) Delete(ctx context.Context, id int64) error {
	return wrap(ErrWriteFailed, "delete conversation", r.t.delete(ctx, id))
}

// Count returns the number of conversations.
func (r *SQLConversationRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.t.count(ctx)
	return n, wrap(ErrQueryFailed, "count conversations", err)
}

var _ ConversationRepository = (*SQLConversationRepository)(nil)
