package services

import (
	"context"
	"fmt"
	"strings"

	"hisab/internal/core"
	"hisab/internal/storage"
)

// CategoryService owns category CRUD. Deleting a category detaches its
// expenses instead of removing them.
type CategoryService struct {
	repo  *storage.Repository
	clock core.Clock
}

func NewCategoryService(repo *storage.Repository, clock core.Clock) *CategoryService {
	return &CategoryService{repo: repo, clock: clock}
}

// Create validates and stores a category.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return core.Category{}, fmt.Errorf("%w: %s", core.ErrValidation, core.ErrEmptyName)
	}
	c.IsDefault = false
	c.CreatedAt = s.clock.Now()
	return s.repo.CreateCategory(ctx, c)
}

// List returns the user's categories.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.repo.ListCategories(ctx, userID)
}

// Update renames or restyles a category. The default flag set at seeding is
// preserved.
func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return core.Category{}, fmt.Errorf("%w: %s", core.ErrValidation, core.ErrEmptyName)
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return s.repo.GetCategory(ctx, c.UserID, c.ID)
}

// Delete removes a category; its expenses survive uncategorized.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteCategory(ctx, userID, id)
}
