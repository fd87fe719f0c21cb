package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/logger"
	"storefront/internal/models"
)

type Store interface {
	UpsertUser(ctx context.Context, user models.User) (bool, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type Notifier interface {
	SendWelcome(user *models.User) error
}

// Service syncs user records on external login. The bootstrap-admin set
// comes from configuration; matching emails are always admins regardless
// of the stored flag.
type Service struct {
	Store           Store
	Notifier        Notifier
	BootstrapAdmins map[string]bool
	Logger          *logger.Logger

	dispatch func(task func())
}

func NewService(store Store, notifier Notifier, bootstrapEmails []string, log *logger.Logger) *Service {
	admins := make(map[string]bool, len(bootstrapEmails))
	for _, email := range bootstrapEmails {
		admins[strings.ToLower(email)] = true
	}
	return &Service{
		Store:           store,
		Notifier:        notifier,
		BootstrapAdmins: admins,
		Logger:          log,
		dispatch:        func(task func()) { go task() },
	}
}

// SetDispatcher overrides how the welcome email task is run.
func (s *Service) SetDispatcher(dispatch func(task func())) {
	s.dispatch = dispatch
}

// Sync creates or refreshes the user row and returns the stored record.
// Users are never deleted; every successful login lands here.
func (s *Service) Sync(ctx context.Context, req models.UserSyncRequest) (*models.User, error) {
	if req.ID == "" || req.Email == "" {
		return nil, fmt.Errorf("user sync requires id and email")
	}

	user := models.User{
		ID:        req.ID,
		Email:     req.Email,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		IsAdmin:   req.IsAdmin || s.BootstrapAdmins[strings.ToLower(req.Email)],
		CreatedAt: time.Now(),
	}

	created, err := s.Store.UpsertUser(ctx, user)
	if err != nil {
		s.Logger.Error("USER", fmt.Sprintf("Failed to sync user %s: %v", req.ID, err))
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}

	if created {
		s.Logger.Info("USER", fmt.Sprintf("Created user %s", req.ID))
		welcomed := user
		s.dispatch(func() {
			if err := s.Notifier.SendWelcome(&welcomed); err != nil {
				s.Logger.Error("MAIL", fmt.Sprintf("Welcome email for %s failed: %v", welcomed.Email, err))
			}
		})
	}

	return s.Store.GetUserByID(ctx, req.ID)
}

// List returns every user, newest first (admin view).
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.Store.ListUsers(ctx)
}

// IsAdmin reports whether the stored user carries the admin flag.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin, nil
}
