package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"echo-diary/internal/config"
	"echo-diary/internal/logger"
	"echo-diary/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const AdminUsername = "admin"

// Claims is the bearer token payload; Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

type AuthService struct {
	db            *gorm.DB
	secret        []byte
	ttl           time.Duration
	adminPassword string
	now           func() time.Time
}

func NewAuthService(db *gorm.DB, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		db:            db,
		secret:        []byte(cfg.JWTSecret),
		ttl:           cfg.TokenTTL(),
		adminPassword: cfg.AdminPassword,
		now:           time.Now,
	}
}

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// EnsureAdmin creates the default administrator if it does not exist yet. Safe to call repeatedly.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", AdminUsername).Count(&count).Error; err != nil {
		return fmt.Errorf("query admin: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := s.CreateUser(ctx, AdminUsername, s.adminPassword, model.RoleAdmin)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("auth.admin.seeded", "username", AdminUsername)
	return nil
}

func (s *AuthService) CreateUser(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := model.User{Username: username, Password: hash, Role: role}
	err = s.db.WithContext(ctx).Create(&u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("username %q already exists: %w", username, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

// Signup re-seeds the admin first so the reserved username can never be claimed as a plain user.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.User, error) {
	if err := s.EnsureAdmin(ctx); err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", strings.TrimSpace(username)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("username %q already exists: %w", username, ErrConflict)
	}
	return s.CreateUser(ctx, username, password, model.RoleUser)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.findByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) && username == AdminUsername {
		if err := s.EnsureAdmin(ctx); err != nil {
			return nil, err
		}
		u, err = s.findByUsername(ctx, username)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user not found: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, fmt.Errorf("wrong password: %w", ErrUnauthorized)
	}
	return u, nil
}

func (s *AuthService) findByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) UserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AuthService) IssueToken(u *model.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: u.Username,
		Role:     u.Role,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %v: %w", err, ErrUnauthorized)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}
	return claims, nil
}

// Authenticate resolves a raw bearer token to a stored user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.ParseToken(raw)
	if err != nil {
		return nil, err
	}
	return s.UserByID(ctx, claims.Subject)
}

func AuthorizeAdmin(u *model.User) error {
	if u == nil || u.Role != model.RoleAdmin {
		return fmt.Errorf("admin role required: %w", ErrForbidden)
	}
	return nil
}

// CanMutate reports whether u may change a record owned by ownerID.
func CanMutate(u *model.User, ownerID string) bool {
	if u == nil {
		return false
	}
	return u.Role == model.RoleAdmin || (ownerID != "" && ownerID == u.ID)
}
