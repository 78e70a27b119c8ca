package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 24 * time.Hour

const (
	jwtClaimEmail = "email"
	jwtClaimRole  = "role"
)

// AuthService проверяет учётные данные организатора и выдаёт токен.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (string, *models.Admin, error)
	ParseToken(token string) (*models.Admin, error)
}

type authService struct {
	admin     models.Admin
	jwtSecret []byte
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewAuthService takes the single admin account from configuration. The
// password is stored as a bcrypt hash.
func NewAuthService(email, passwordHash, jwtSecret string, clock clockwork.Clock, logger *slog.Logger) AuthService {
	return &authService{
		admin: models.Admin{
			Email:        strings.ToLower(strings.TrimSpace(email)),
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
		},
		jwtSecret: []byte(jwtSecret),
		clock:     clock,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (string, *models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrValidationFailed)
	}
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return "", nil, ErrAuthInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.admin.Email)) == 1
	err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(creds.Password))
	if !emailOK || err != nil {
		if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.ErrorContext(ctx, "admin password hash check failed", slog.Any("error", err))
		}
		return "", nil, ErrAuthInvalidCredentials
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		jwtClaimEmail: s.admin.Email,
		jwtClaimRole:  string(models.RoleAdmin),
		"exp":         now.Add(adminTokenTTL).Unix(),
		"iat":         now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	admin := s.admin
	return signed, &admin, nil
}

func (s *authService) ParseToken(tokenString string) (*models.Admin, error) {
	claims := jwt.MapClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	// Срок проверяем по своим часам, а не по time.Now внутри jwt.
	if !claims.VerifyExpiresAt(s.clock.Now().Unix(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrAuthenticationFailed)
	}

	role, _ := claims[jwtClaimRole].(string)
	if models.UserRole(role) != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not an admin token", ErrAuthenticationFailed)
	}
	email, _ := claims[jwtClaimEmail].(string)
	return &models.Admin{Email: email, Role: models.RoleAdmin}, nil
}
