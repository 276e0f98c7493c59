package handler

import (
	"net/http"

	"pantry-api/internal/model"
	"pantry-api/internal/service"
	"pantry-api/pkg/response"
)

// ConversationHandler handles conversation HTTP requests.
type ConversationHandler struct {
	conversationService *service.ConversationService
	maxBody             int64
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(conversationService *service.ConversationService, maxBody int64) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		maxBody:             maxBody,
	}
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ConversationFilter{})
}

// ListSaved handles GET /api/conversations/saved
func (h *ConversationHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ConversationFilter{SavedOnly: true})
}

// ListShared handles GET /api/conversations/shared
func (h *ConversationHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ConversationFilter{SharedOnly: true})
}

func (h *ConversationHandler) list(w http.ResponseWriter, r *http.Request, filter model.ConversationFilter) {
	convs, err := h.conversationService.List(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, convs)
}

// Get handles GET /api/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	c, err := h.conversationService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, c)
}

// Create handles POST /api/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		response.Error(w, err)
		return
	}
	c, err := h.conversationService.Create(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, c)
}

// Update handles PUT /api/conversations/{id}
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req model.UpdateConversationRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		response.Error(w, err)
		return
	}
	c, err := h.conversationService.Update(r.Context(), id, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, c)
}

// Delete handles DELETE /api/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	if err := h.conversationService.Delete(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, deleted{Message: "Conversation deleted", ID: id})
}
