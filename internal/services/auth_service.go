package services

import (
	"context"
	"errors"
	"time"

	"github.com/LIN0304/entropy-lottery/internal/config"
	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/repositories"
	"github.com/LIN0304/entropy-lottery/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// AuthService defines the interface for admin authentication operations
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // Returns JWT token
	EnsureBootstrapAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	adminRepo repositories.AdminUserRepository
	cfg       *config.Config
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(adminRepo repositories.AdminUserRepository, cfg *config.Config) AuthService {
	return &authService{
		adminRepo: adminRepo,
		cfg:       cfg,
	}
}

// Login verifies admin credentials and returns a signed JWT
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token, err := utils.GenerateJWT(admin.ID.Hex(), admin.Role, s.cfg)
	if err != nil {
		slog.Error("Failed to generate admin token", "error", err, "email", req.Email)
		return "", errors.New("failed to generate token")
	}
	return token, nil
}

// EnsureBootstrapAdmin creates the initial admin account when the collection
// is empty, so a fresh deployment is operable.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.AdminUser{
		Email:     email,
		Password:  string(hashed),
		Role:      "admin",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return err
	}
	slog.Info("Bootstrap admin created", "email", email)
	return nil
}
