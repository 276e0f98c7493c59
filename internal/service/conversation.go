package service

import (
	"context"
	"strings"
	"time"

	"pantry-api/internal/metrics"
	"pantry-api/internal/model"
	"pantry-api/internal/repository"
)

// ConversationService handles conversation business logic.
type ConversationService struct {
	repo    repository.ConversationRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewConversationService creates a new conversation service. m may be nil.
func NewConversationService(repo repository.ConversationRepository, m *metrics.Metrics) *ConversationService {
	return &ConversationService{repo: repo, metrics: m, now: time.Now}
}

// List returns conversations matching filter, newest first.
func (s *ConversationService) List(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, error) {
	convs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(ctx, "fetch conversations", "", err)
	}
	return convs, nil
}

// Get returns one conversation.
func (s *ConversationService) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "fetch conversation", "Conversation not found", err)
	}
	return c, nil
}

// Create validates req and stores a new conversation stamped with the
// current UTC time.
func (s *ConversationService) Create(ctx context.Context, req model.CreateConversationRequest) (*model.Conversation, error) {
	req.Conversation = strings.TrimSpace(req.Conversation)
	req.Title = trimmed(req.Title)
	if err := checkStruct(req); err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, model.NewConversation{
		Conversation: req.Conversation,
		Title:        req.Title,
		PhotoBase64:  req.PhotoBase64,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, storeError(ctx, "save conversation", "", err)
	}
	return c, nil
}

// Update applies the present fields of req to conversation id.
func (s *ConversationService) Update(ctx context.Context, id int64, req model.UpdateConversationRequest) (*model.Conversation, error) {
	req.Title = trimmed(req.Title)
	if err := checkStruct(req); err != nil {
		return nil, err
	}

	c, err := s.repo.Update(ctx, id, req.Patch())
	if err != nil {
		return nil, storeError(ctx, "update conversation", "Conversation not found", err)
	}
	if req.Rating != nil && s.metrics != nil {
		s.metrics.RatingsSubmitted.Inc()
	}
	return c, nil
}

// Delete removes conversation id.
func (s *ConversationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(ctx, "delete conversation", "Conversation not found", err)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
