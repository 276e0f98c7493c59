package handler

import (
	"net/http"

	"pantry-api/internal/model"
	"pantry-api/internal/service"
	"pantry-api/pkg/response"
)

// InventoryHandler handles pantry inventory HTTP requests.
type InventoryHandler struct {
	inventoryService *service.InventoryService
	maxBody          int64
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventoryService *service.InventoryService, maxBody int64) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		maxBody:          maxBody,
	}
}

// List handles GET /api/inventory
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventoryService.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, items)
}

// Get handles GET /api/inventory/{id}
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.inventoryService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, item)
}

// Create handles POST /api/inventory
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.InventoryRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.inventoryService.Create(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, item)
}

// Update handles PUT /api/inventory/{id}
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req model.InventoryRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.inventoryService.Update(r.Context(), id, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, item)
}

// Delete handles DELETE /api/inventory/{id}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	if err := h.inventoryService.Delete(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, deleted{Message: "Item deleted", ID: id})
}
