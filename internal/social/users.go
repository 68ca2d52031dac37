package social

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/photofriends/backend/internal/logging"
	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/repositories"
)

const (
	minUsernameLength = 5
	maxUsernameLength = 31
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	maxPasswordBytes = 72
)

// AssetRemover drops published copies of deleted posts. Implementations must
// not block on the removal itself.
type AssetRemover interface {
	Remove(ctx context.Context, posts []models.Post)
}

// UserService implements the user lifecycle on top of a UserRepository.
type UserService struct {
	users    repositories.UserRepository
	clock    Clock
	assets   AssetRemover
	hashCost int
}

// NewUserService constructs a UserService. assets may be nil.
func NewUserService(users repositories.UserRepository, clock Clock, assets AssetRemover) *UserService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &UserService{users: users, clock: clock, assets: assets, hashCost: bcrypt.DefaultCost}
}

// Register validates the account fields, hashes the password and stores the
// user with empty personal data.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "users.register")
	defer span.End()

	if err := validateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RegisteredAt: s.clock.Now(),
	})
	if err != nil {
		return models.User{}, constraintError(err)
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID)
	return user, nil
}

// Get returns the user together with its friend ids.
func (s *UserService) Get(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, userError(err, userID)
	}
	return user, nil
}

// Search lists users matching the filter, ordered by id.
func (s *UserService) Search(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	return s.users.Search(ctx, filter)
}

// Delete removes the user after scrubbing its friendships and posts.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	ctx, span := logging.StartSpan(ctx, "users.delete")
	defer span.End()

	removed, err := s.users.Delete(ctx, userID)
	if err != nil {
		return userError(err, userID)
	}

	if s.assets != nil && len(removed) > 0 {
		s.assets.Remove(ctx, removed)
	}

	logging.FromContext(ctx).Info("user deleted", "userId", userID, "removedPosts", len(removed))
	return nil
}

// ModifyAccount replaces the email address and password of a user.
func (s *UserService) ModifyAccount(ctx context.Context, userID int64, email, password string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "users.modifyAccount")
	defer span.End()

	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateAccount(ctx, userID, email, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, constraintError(err)
		}
		return models.User{}, userError(err, userID)
	}
	return user, nil
}

// ModifyPersonalData replaces the optional profile fields of a user.
func (s *UserService) ModifyPersonalData(ctx context.Context, userID int64, data models.PersonalData) (models.User, error) {
	if data.DateOfBirth != nil {
		dob := utcDate(*data.DateOfBirth)
		// Compared as calendar dates, so today is not in the past.
		if !dob.Before(utcDate(s.clock.Now().UTC())) {
			return models.User{}, invalid("The date of birth must be in the past!")
		}
		data.DateOfBirth = &dob
	}

	user, err := s.users.UpdatePersonalData(ctx, userID, data)
	if err != nil {
		return models.User{}, userError(err, userID)
	}
	return user, nil
}

func utcDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *UserService) hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", invalid("Password must not be null, empty, or blank!")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", invalid("Password must be at least 8 characters long!")
	}
	if len(password) > maxPasswordBytes {
		return "", invalid("Password must be at most 72 bytes long!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return invalid("Username must not be null, empty, or blank!")
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return invalid("Username length must be between 5 and 32 characters!")
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("Email address must not be null, empty, or blank!")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("Email address is not valid.")
	}
	return nil
}

// constraintError converts a unique-key violation into a ConstraintViolationError.
func constraintError(err error) error {
	var conflict *repositories.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}

	switch conflict.Constraint {
	case "users_username_key":
		return &ConstraintViolationError{Detail: "A user with this username already exists."}
	case "users_email_key":
		return &ConstraintViolationError{Detail: "A user with this email address already exists."}
	default:
		return &ConstraintViolationError{Detail: conflict.Message}
	}
}

// userError maps repository lookups to NotFoundError. A MissingRecordError
// names the id that was missing; a bare ErrNotFound refers to fallback.
func userError(err error, fallback int64) error {
	var missing *repositories.MissingRecordError
	if errors.As(err, &missing) {
		return userNotFound(missing.ID)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return userNotFound(fallback)
	}
	return err
}
