package service

import (
	"context"
	"strings"

	"pantry-api/internal/model"
	"pantry-api/internal/repository"
)

// InventoryService handles pantry inventory business logic.
type InventoryService struct {
	repo repository.InventoryRepository
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo repository.InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// List returns all items, newest first.
func (s *InventoryService) List(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(ctx, "fetch inventory", "", err)
	}
	return items, nil
}

// Get returns one item.
func (s *InventoryService) Get(ctx context.Context, id int64) (*model.InventoryItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "fetch inventory item", "Item not found", err)
	}
	return item, nil
}

// Create validates req and stores a new item.
func (s *InventoryService) Create(ctx context.Context, req model.InventoryRequest) (*model.InventoryItem, error) {
	fields, err := inventoryFields(req)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, storeError(ctx, "add inventory item", "", err)
	}
	return item, nil
}

// Update validates req and replaces every field of item id.
func (s *InventoryService) Update(ctx context.Context, id int64, req model.InventoryRequest) (*model.InventoryItem, error) {
	fields, err := inventoryFields(req)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(ctx, "update inventory item", "Item not found", err)
	}
	return item, nil
}

// Delete removes item id.
func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(ctx, "delete inventory item", "Item not found", err)
	}
	return nil
}

func inventoryFields(req model.InventoryRequest) (model.InventoryFields, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Unit != nil {
		unit := strings.TrimSpace(*req.Unit)
		req.Unit = &unit
		if unit == "" {
			req.Unit = nil
		}
	}
	if err := checkStruct(req); err != nil {
		return model.InventoryFields{}, err
	}
	return model.InventoryFields{Name: req.Name, Amount: req.Amount, Unit: req.Unit}, nil
}
