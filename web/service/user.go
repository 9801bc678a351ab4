// Package service implements the portal's business operations over the
// credential store.
package service

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"memberhub/database"
	"memberhub/database/model"
	"memberhub/logger"
	"memberhub/util/crypto"
)

// Sentinel errors for the credential flow. Controllers decide which of these
// reach the user verbatim; lookup and credential failures deliberately render
// the same message so the login form does not confirm which emails exist.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already registered")
)

// ValidationError reports a malformed signup or login field. The message is
// safe to show to the user.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

const maxFieldLen = 20

var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

func validateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(name) > maxFieldLen {
		return &ValidationError{Field: "name", Reason: "must be at most 20 characters"}
	}
	if !nameRegexp.MatchString(name) {
		return &ValidationError{Field: "name", Reason: "must be alphanumeric"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "must be a well-formed address"}
	}
	return nil
}

// No minimum length is enforced. The historical portal never had one and
// adding a policy here is a product decision, not a port decision.
func validatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if len(password) > maxFieldLen {
		return &ValidationError{Field: "password", Reason: "must be at most 20 characters"}
	}
	return nil
}

// UserService gates every read and write of user records.
type UserService struct{}

// SignUp validates the signup fields and inserts a new member with role
// "user". The insert itself is the uniqueness check: the store's unique
// email index rejects a duplicate even when two signups race past any
// earlier existence lookup.
func (s *UserService) SignUp(name, email, password string) (*model.User, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}

	db := database.GetDB()
	if err := db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// CheckUser verifies login credentials and returns the current user record.
// Callers must not forward ErrUserNotFound and ErrInvalidCredentials to the
// client as distinct messages.
func (s *UserService) CheckUser(email, password string) (*model.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByEmail returns the user with the given email, ErrUserNotFound when
// absent.
func (s *UserService) GetUserByEmail(email string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("email = ?", email).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrUserNotFound
	} else if err != nil {
		logger.Warning("find user by email err:", err)
		return nil, err
	}
	return user, nil
}

// GetUserByName returns the first user with the given display name. Display
// names are not unique; role updates keyed by name inherit that ambiguity.
func (s *UserService) GetUserByName(name string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("name = ?", name).
		Order("id").
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrUserNotFound
	} else if err != nil {
		logger.Warning("find user by name err:", err)
		return nil, err
	}
	return user, nil
}

// UpdateRole changes the role of the user with the given display name.
// Existing sessions of that user keep their cached role until their next
// role-gated request or a fresh login.
func (s *UserService) UpdateRole(name, role string) error {
	if !model.ValidRole(role) {
		return &ValidationError{Field: "role", Reason: "must be user or admin"}
	}

	user, err := s.GetUserByName(name)
	if err != nil {
		return err
	}

	db := database.GetDB()
	return db.Model(model.User{}).
		Where("id = ?", user.Id).
		Update("role", role).
		Error
}

// ResetAdmin sets the admin account's email and password, creating the
// account when none exists. Used by the CLI.
func (s *UserService) ResetAdmin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}

	db := database.GetDB()
	admin := &model.User{}
	err = db.Model(model.User{}).
		Where("role = ?", model.RoleAdmin).
		Order("id").
		First(admin).
		Error
	if database.IsNotFound(err) {
		admin = &model.User{
			Name:         "admin",
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleAdmin,
		}
		return db.Create(admin).Error
	} else if err != nil {
		return err
	}

	admin.Email = email
	admin.PasswordHash = hash
	return db.Save(admin).Error
}

// ListUsers returns every member's name and role for the admin view.
func (s *UserService) ListUsers() ([]model.User, error) {
	db := database.GetDB()

	var users []model.User
	err := db.Model(model.User{}).
		Select("id", "name", "role").
		Order("id").
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
