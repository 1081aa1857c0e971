// Package account keeps the mocked user records: a registered-users list and
// the currently logged-in user, both in the local store. There is no real
// authentication and passwords are never stored.
package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/logger"
	"trivia-quiz/internal/storage"
)

const (
	MinPasswordLength = 6
	defaultAvatar     = "default"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailNotRegistered = errors.New("email is not registered")
	ErrNotLoggedIn        = errors.New("no user is logged in")
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// SessionResetter is the in-progress quiz a logout has to discard.
type SessionResetter interface {
	Reset()
}

type Service struct {
	store    storage.Store
	log      logrus.FieldLogger
	validate *validator.Validate
	session  SessionResetter
	now      func() time.Time

	// mu serialises read-modify-write of the registered list.
	mu sync.Mutex
}

type Options struct {
	Store   storage.Store
	Logger  logrus.FieldLogger
	Session SessionResetter
	Now     func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		store:    opts.Store,
		log:      opts.Logger,
		validate: validator.New(),
		session:  opts.Session,
		now:      opts.Now,
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register validates req and adds a user to the registered list. Nothing is
// written unless every check passes. It does not log the user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if err := s.validateStruct(req); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.registered(ctx)
	if err != nil {
		return User{}, err
	}
	for _, existing := range users {
		if existing.Email == req.Email {
			return User{}, ErrEmailTaken
		}
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Username, req.Username) {
			return User{}, ErrUsernameTaken
		}
	}

	user := User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Username:  req.Username,
		Avatar:    defaultAvatar,
		CreatedAt: s.now().UTC(),
	}
	users = append(users, user)
	if err := s.store.Set(ctx, storage.RegisteredUsersKey, users); err != nil {
		return User{}, errors.Wrap(err, "failed to save registered users")
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateStruct(req); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.registered(ctx)
	if err != nil {
		return User{}, err
	}

	var user *User
	for idx := range users {
		if users[idx].Email == req.Email {
			user = &users[idx]
			break
		}
	}
	if user == nil {
		return User{}, ErrEmailNotRegistered
	}
	if err := s.validate.Var(req.Password, "min=6"); err != nil {
		return User{}, ErrPasswordTooShort
	}

	if user.Avatar == "" {
		user.Avatar = defaultAvatar
	}
	if err := s.store.Set(ctx, storage.CurrentUserKey, user); err != nil {
		return User{}, errors.Wrap(err, "failed to save current user")
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return *user, nil
}

// Logout forgets the current user and any in-progress quiz.
func (s *Service) Logout(ctx context.Context) error {
	if s.session != nil {
		s.session.Reset()
	}

	var result *multierror.Error
	if err := s.store.Remove(ctx, storage.CurrentUserKey); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to clear current user"))
	}
	if err := s.store.Remove(ctx, storage.SessionKey); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to clear session snapshot"))
	}
	return result.ErrorOrNil()
}

// Current returns the logged-in user. An unreadable record counts as
// logged out.
func (s *Service) Current(ctx context.Context) (User, bool, error) {
	var user User
	found, err := s.store.Get(ctx, storage.CurrentUserKey, &user)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			s.log.WithError(err).Warn("discarding unreadable current user")
			return User{}, false, nil
		}
		return User{}, false, err
	}
	if !found {
		return User{}, false, nil
	}
	return user, true, nil
}

// UpdateProfile merges update into both the current user and its entry in
// the registered list.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.Current(ctx)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotLoggedIn
	}

	users, err := s.registered(ctx)
	if err != nil {
		return User{}, err
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return User{}, ErrMissingFields
		}
		for _, existing := range users {
			if existing.ID != current.ID && strings.EqualFold(existing.Username, username) {
				return User{}, ErrUsernameTaken
			}
		}
		current.Username = username
	}
	if update.Bio != nil {
		current.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.Avatar != nil {
		current.Avatar = strings.TrimSpace(*update.Avatar)
	}

	for idx := range users {
		if users[idx].ID == current.ID {
			createdAt := users[idx].CreatedAt
			users[idx] = current
			users[idx].CreatedAt = createdAt
			if err := s.store.Set(ctx, storage.RegisteredUsersKey, users); err != nil {
				return User{}, errors.Wrap(err, "failed to save registered users")
			}
			break
		}
	}

	if err := s.store.Set(ctx, storage.CurrentUserKey, current); err != nil {
		return User{}, errors.Wrap(err, "failed to save current user")
	}
	return current, nil
}

func (s *Service) registered(ctx context.Context) ([]User, error) {
	var users []User
	_, err := s.store.Get(ctx, storage.RegisteredUsersKey, &users)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			s.log.WithError(err).Warn("treating unreadable registered users as empty")
			return []User{}, nil
		}
		return nil, err
	}
	return users, nil
}

// validateStruct reports the most basic failure first: missing fields, then
// email format, then password length, then confirmation.
func (s *Service) validateStruct(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validation failed")
	}

	tags := make(map[string]bool, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		tags[fieldErr.Tag()] = true
	}
	switch {
	case tags["required"]:
		return ErrMissingFields
	case tags["email"]:
		return ErrInvalidEmail
	case tags["min"]:
		return ErrPasswordTooShort
	case tags["eqfield"]:
		return ErrPasswordMismatch
	default:
		return errors.Wrap(err, "validation failed")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
