package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only accepts passwords up to 72 bytes
const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

// AccountStore persists user accounts
type AccountStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByName(ctx context.Context, userName string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// SessionStore persists server-side sessions
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

// SignUpInput is the registration payload
type SignUpInput struct {
	UserName string `json:"userName"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ProfileInput carries the editable account fields
type ProfileInput struct {
	UserName   string `json:"userName"`
	Phone      string `json:"phone"`
	State      string `json:"state"`
	Address    string `json:"address"`
	Country    string `json:"country"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// AuthResult is returned when a session is opened
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// AccountService handles registration, sessions and profile management
type AccountService struct {
	accounts   AccountStore
	sessions   SessionStore
	tokens     *TokenService
	sessionTTL time.Duration
	hashCost   int
	now        func() time.Time
}

// NewAccountService creates the account service
func NewAccountService(accounts AccountStore, sessions SessionStore, tokens *TokenService, sessionTTL time.Duration) *AccountService {
	return &AccountService{
		accounts:   accounts,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// WithHashCost overrides the bcrypt cost, for tests
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// SignUp registers a customer account and opens a session for it
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	userName := strings.TrimSpace(input.UserName)
	phone := strings.TrimSpace(input.Phone)
	if userName == "" || phone == "" || input.Password == "" {
		return nil, NewValidationError("Username, phone and password are required")
	}
	if err := validatePasswordLength(input.Password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, userName, phone, input.Password, false)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// CreateAdmin registers an administrator account
func (s *AccountService) CreateAdmin(ctx context.Context, userName, phone, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || strings.TrimSpace(phone) == "" || len(password) < minPasswordLength {
		return nil, NewValidationError("Username, phone and a password of at least 6 characters are required")
	}
	if err := validatePasswordLength(password); err != nil {
		return nil, err
	}
	return s.createUser(ctx, userName, strings.TrimSpace(phone), password, true)
}

func (s *AccountService) createUser(ctx context.Context, userName, phone, password string, isAdmin bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName:     userName,
		Phone:        phone,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("USER_EXISTS", "User already exists")
		}
		return nil, err
	}
	return user, nil
}

// SignIn checks the credentials and opens a session
func (s *AccountService) SignIn(ctx context.Context, userName, password string) (*AuthResult, error) {
	if strings.TrimSpace(userName) == "" || password == "" {
		return nil, NewValidationError("Username and password are required")
	}

	user, err := s.accounts.FindByName(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewAuthorizationError("Invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, NewAuthorizationError("Invalid credentials")
	}
	return s.openSession(ctx, user)
}

func (s *AccountService) openSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user, session)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("Session opened")
	return &AuthResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// LogOut revokes the session
func (s *AccountService) LogOut(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID, s.now())
}

// ValidateSession confirms that sessionID is live and belongs to userID
func (s *AccountService) ValidateSession(ctx context.Context, sessionID, userID string) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NewAuthorizationError("Session not found")
		}
		return err
	}
	if session.UserID != userID || !session.Active(s.now()) {
		return NewAuthorizationError("Session expired")
	}
	return nil
}

// IsAdmin reports whether the account currently has admin rights
func (s *AccountService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

// GetDetails returns the caller's account
func (s *AccountService) GetDetails(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("User not found")
		}
		return nil, err
	}
	return user, nil
}

// EditDetails updates the caller's profile
func (s *AccountService) EditDetails(ctx context.Context, userID string, input ProfileInput) (*models.User, error) {
	userName := strings.TrimSpace(input.UserName)
	phone := strings.TrimSpace(input.Phone)
	if userName == "" || phone == "" {
		return nil, NewValidationError("Username and phone are required")
	}

	user, err := s.GetDetails(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.UserName = userName
	user.Phone = phone
	user.State = strings.TrimSpace(input.State)
	user.Address = strings.TrimSpace(input.Address)
	user.Country = strings.TrimSpace(input.Country)
	user.City = strings.TrimSpace(input.City)
	user.PostalCode = strings.TrimSpace(input.PostalCode)

	if err := s.accounts.Save(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("USER_EXISTS", "Username is already taken")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return NewValidationError("Old and new passwords are required")
	}
	if err := validatePasswordLength(newPassword); err != nil {
		return err
	}

	user, err := s.GetDetails(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return NewValidationError("Password is not correct")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.accounts.Save(ctx, user)
}

func validatePasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return NewValidationError("Password must be at least 6 characters")
	}
	if len(password) > maxPasswordLength {
		return NewValidationError("Password must be at most 72 characters")
	}
	return nil
}
