package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pantry-api/internal/database"
	"pantry-api/internal/model"
)

func TestConversationCreate(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	c, err := repo.Create(ctx, model.NewConversation{Conversation: "Adobo recipe", Title: ptr("Dinner"), CreatedAt: now})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.RatingCount != 0 || c.RatingSum != 0 || c.AverageRating != 0 {
		t.Errorf("expected zeroed accumulators, got %+v", c)
	}
	if c.IsSaved || c.IsShared {
		t.Errorf("expected flags false, got %+v", c)
	}
	if !c.CreatedAt.Equal(now) || c.CreatedAt.Location() != time.UTC {
		t.Errorf("expected created_at %v UTC, got %v", now, c.CreatedAt)
	}
	if c.Title == nil || *c.Title != "Dinner" || c.PhotoBase64 != nil {
		t.Errorf("unexpected optional fields %+v", c)
	}
}

func TestConversationRatingAccumulates(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()

	c, _ := repo.Create(ctx, model.NewConversation{Conversation: "Adobo recipe"})

	c, err := repo.Update(ctx, c.ID, model.ConversationPatch{Rating: ptr(4.0)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if c.RatingCount != 1 || c.AverageRating != 4.0 {
		t.Errorf("expected count 1 avg 4.0, got count %d avg %v", c.RatingCount, c.AverageRating)
	}

	c, _ = repo.Update(ctx, c.ID, model.ConversationPatch{Rating: ptr(2.0)})
	if c.RatingCount != 2 || c.RatingSum != 6.0 || c.AverageRating != 3.0 {
		t.Errorf("expected count 2 sum 6 avg 3.0, got %+v", c)
	}
}

func TestConversationConcurrentRatings(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()

	c, _ := repo.Create(ctx, model.NewConversation{Conversation: "Shared chat"})

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, c.ID, model.ConversationPatch{Rating: ptr(1.5)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Update: %v", err)
		}
	}

	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RatingCount != n || got.RatingSum != 1.5*n {
		t.Errorf("expected count %d sum %v, got count %d sum %v", n, 1.5*n, got.RatingCount, got.RatingSum)
	}
}

func TestConversationPartialUpdate(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()

	c, _ := repo.Create(ctx, model.NewConversation{Conversation: "Chat", Title: ptr("Original")})

	c, err := repo.Update(ctx, c.ID, model.ConversationPatch{IsSaved: ptr(true)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !c.IsSaved || c.IsShared || c.Title == nil || *c.Title != "Original" {
		t.Errorf("expected only is_saved to change, got %+v", c)
	}

	same, err := repo.Update(ctx, c.ID, model.ConversationPatch{})
	if err != nil {
		t.Fatalf("empty Update: %v", err)
	}
	if same.ID != c.ID || !same.IsSaved {
		t.Errorf("expected empty patch to return current record, got %+v", same)
	}

	if _, err := repo.Update(ctx, 4242, model.ConversationPatch{IsShared: ptr(true)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, 4242, model.ConversationPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty patch, got %v", err)
	}
}

func TestConversationUpdateMissingLeavesRowsAlone(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()

	existing, err := repo.Create(ctx, model.NewConversation{Conversation: "Sinigang", Title: ptr("Soup")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	missing := existing.ID + 100

	patches := []model.ConversationPatch{
		{Rating: ptr(5.0)},
		{Rating: ptr(3.0), IsSaved: ptr(true), Title: ptr("Hijacked")},
	}
	for _, p := range patches {
		if _, err := repo.Update(ctx, missing, p); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	got, err := repo.Get(ctx, existing.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RatingCount != 0 || got.RatingSum != 0 || got.AverageRating != 0 {
		t.Errorf("expected untouched accumulators, got sum=%v count=%d", got.RatingSum, got.RatingCount)
	}
	if got.IsSaved || got.Title == nil || *got.Title != "Soup" {
		t.Errorf("expected untouched row, got %+v", got)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestConversationListFilters(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()

	a, _ := repo.Create(ctx, model.NewConversation{Conversation: "a"})
	b, _ := repo.Create(ctx, model.NewConversation{Conversation: "b"})
	_, _ = repo.Create(ctx, model.NewConversation{Conversation: "c"})
	_, _ = repo.Update(ctx, a.ID, model.ConversationPatch{IsSaved: ptr(true)})
	_, _ = repo.Update(ctx, b.ID, model.ConversationPatch{IsSaved: ptr(true), IsShared: ptr(true)})

	all, _ := repo.List(ctx, model.ConversationFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 conversations, got %d", len(all))
	}

	saved, _ := repo.List(ctx, model.ConversationFilter{SavedOnly: true})
	if len(saved) != 2 || saved[0].ID != b.ID {
		t.Errorf("expected 2 saved conversations newest first, got %+v", saved)
	}

	shared, _ := repo.List(ctx, model.ConversationFilter{SharedOnly: true})
	if len(shared) != 1 || shared[0].ID != b.ID {
		t.Errorf("expected only b shared, got %+v", shared)
	}
}

func TestConversationDelete(t *testing.T) {
	repo := NewSQLConversationRepository(database.NewTestPool(t))
	ctx := context.Background()

	c, _ := repo.Create(ctx, model.NewConversation{Conversation: "bye"})
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
