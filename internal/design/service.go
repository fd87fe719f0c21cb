package design

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/logger"
	"storefront/internal/models"
)

var (
	ErrNotFound      = errors.New("design not found")
	ErrSeedProtected = errors.New("seed designs cannot be deleted")
)

type Store interface {
	ListDesigns(ctx context.Context) ([]models.Design, error)
	GetDesignByID(ctx context.Context, id string) (*models.Design, error)
	CreateDesign(ctx context.Context, design models.Design) error
	DeleteDesign(ctx context.Context, id string) error
}

// Service owns the design catalogue. Designs are immutable once created:
// there is no update path, only create, list and admin delete.
type Service struct {
	Store           Store
	SeedImagePrefix string
	Logger          *logger.Logger
}

func NewService(store Store, seedImagePrefix string, log *logger.Logger) *Service {
	return &Service{Store: store, SeedImagePrefix: seedImagePrefix, Logger: log}
}

func (s *Service) List(ctx context.Context) ([]models.Design, error) {
	return s.Store.ListDesigns(ctx)
}

func (s *Service) Create(ctx context.Context, req models.DesignCreateRequest) (*models.Design, error) {
	if req.Name == "" || req.Author == "" || req.ImageURL == "" {
		return nil, fmt.Errorf("design requires name, author and image url")
	}

	design := models.Design{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Author:    req.Author,
		ImageURL:  req.ImageURL,
		IsAI:      req.IsAI,
		CreatedAt: time.Now(),
	}

	if err := s.Store.CreateDesign(ctx, design); err != nil {
		s.Logger.Error("DESIGN", fmt.Sprintf("Failed to create design %s: %v", design.ID, err))
		return nil, fmt.Errorf("failed to create design: %w", err)
	}

	s.Logger.Info("DESIGN", fmt.Sprintf("Created design %s (%s)", design.ID, design.Name))
	return &design, nil
}

// Delete removes a design. The built-in seed set, recognized by its image
// path prefix, is delete-protected.
func (s *Service) Delete(ctx context.Context, id string) error {
	design, err := s.Store.GetDesignByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up design %s: %w", id, err)
	}
	if design == nil {
		return ErrNotFound
	}
	if s.SeedImagePrefix != "" && strings.HasPrefix(design.ImageURL, s.SeedImagePrefix) {
		return ErrSeedProtected
	}

	if err := s.Store.DeleteDesign(ctx, id); err != nil {
		s.Logger.Error("DESIGN", fmt.Sprintf("Failed to delete design %s: %v", id, err))
		return fmt.Errorf("failed to delete design: %w", err)
	}

	s.Logger.Info("DESIGN", fmt.Sprintf("Deleted design %s", id))
	return nil
}
