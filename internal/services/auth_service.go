package services

import (
	"context"
	"strings"
	"time"

	"github.com/surveyor-app/surveyor/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type TokenSigner func(uid, role, email string) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func NewUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Role: u.Role}
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(role string) bool {
	switch role {
	case models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin:
		return true
	}
	return false
}

// CreateUser stores a bcrypt-hashed account. An empty role means admin.
func (s *AuthService) CreateUser(ctx context.Context, email, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if role == "" {
		role = models.RoleAdmin
	}
	if !validRole(role) {
		return nil, NewInvalidError("unknown role " + role)
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError(ReasonEmailExists, "email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{ID: s.idGen("u", 11), Email: email, PassHash: hash, Role: role, CreatedAt: s.now()}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError(ReasonInvalidCredentials, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError(ReasonInvalidCredentials, "invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Role, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: NewUserView(u)}, nil
}

// Me resolves the stored account behind p.
func (s *AuthService) Me(ctx context.Context, p *Principal) (*UserView, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError(ReasonUserNotFound, "user not found")
	}
	v := NewUserView(u)
	return &v, nil
}
