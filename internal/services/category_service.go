package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mfn/internal/cache"
	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/storage"
)

const (
	categoryCacheSize = 256
	categoryCacheTTL  = 10 * time.Minute
)

// CategoryService resolves category names to ids. Unknown names are created
// on first use by income, expense and debt operations.
type CategoryService struct {
	repo   *storage.SQLiteRepository
	ids    cache.Cache[int64]
	logger *log.Logger
}

func NewCategoryService(repo *storage.SQLiteRepository, logger *log.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		ids:    cache.NewLRUCache[int64](categoryCacheSize, categoryCacheTTL),
		logger: logger.WithComponent(log.ComponentCategory),
	}
}

// Resolve returns the id of name, creating the category if it does not
// exist. It runs on q so it joins the caller's transaction. Resolve never
// fills the cache itself: the caller's transaction may still roll back, so
// callers hand the id to remember once it has committed.
func (s *CategoryService) Resolve(ctx context.Context, q *storage.Queries, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: category", core.ErrEmptyName)
	}

	if id, ok := s.ids.Get(name); ok {
		return id, nil
	}

	id, err := q.GetCategoryID(ctx, name)
	switch {
	case err == nil:
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("get category %q: %w", name, err)
	}

	id, err = q.CreateCategory(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "Category created on first use",
		log.FieldCategory, name,
		"category_id", id)
	return id, nil
}

// Exists reports whether a category with name is stored.
func (s *CategoryService) Exists(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	if _, ok := s.ids.Get(name); ok {
		return true, nil
	}
	_, err := s.repo.Queries().GetCategoryID(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("get category %q: %w", name, err)
	}
}

// Create adds a category explicitly, rejecting names already in use.
func (s *CategoryService) Create(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.WarnContext(ctx, "Rejected category", log.FieldError, core.ErrEmptyName)
		return core.Category{}, fmt.Errorf("%w: category", core.ErrEmptyName)
	}

	var id int64
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		_, err := q.GetCategoryID(ctx, name)
		if err == nil {
			return core.ErrCategoryExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("get category %q: %w", name, err)
		}
		id, err = q.CreateCategory(ctx, name)
		if err != nil {
			return fmt.Errorf("create category %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "create category", err, log.FieldCategory, name)
		return core.Category{}, err
	}

	s.remember(name, id)
	s.logger.InfoContext(ctx, "Category created", log.FieldCategory, name, "category_id", id)
	return core.Category{ID: id, Name: name}, nil
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	rows, err := s.repo.Queries().ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := make([]core.Category, len(rows))
	for i, row := range rows {
		categories[i] = core.Category{ID: row.CategoryID, Name: row.Name}
	}
	return categories, nil
}

// remember caches a committed name to id mapping.
func (s *CategoryService) remember(name string, id int64) {
	s.ids.Set(strings.TrimSpace(name), id)
}

// Purge drops every cached id. Call it after the store is reset.
func (s *CategoryService) Purge() {
	s.ids.Purge()
}
