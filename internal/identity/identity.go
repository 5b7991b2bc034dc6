// Package identity manages accounts: registration, credential checks,
// profile data, account state and role membership.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/validation"
)

const minPasswordLen = 6

var (
	ErrInvalidCredentials = apperr.Unauthorized("invalid_credentials", "invalid email or password")
	ErrAccountNotActive   = apperr.Unauthorized("account_not_active", "account is pending approval or suspended")
	ErrEmailTaken         = apperr.Conflict("email_taken", "email is already registered")
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")
	ErrWrongPassword      = apperr.Validation("wrong_password", "current password does not match")
)

// Invalidator drops cached authorization data for a user.
type Invalidator interface {
	Invalidate(userID uint)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(uint) {}

// Session is returned by login and refresh.
type Session struct {
	auth.Token
	UserName string `json:"user_name"`
	Role     string `json:"role"`
}

// Info is the self-service view of an account.
type Info struct {
	ID           uint     `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	NIF          string   `json:"nif"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	AccountState string   `json:"account_state"`
	Roles        []string `json:"roles"`
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
	NIF             string `json:"nif"`
	Address         string `json:"address"`
}

// InfoInput holds the profile fields a user may change. Email is not one of them.
type InfoInput struct {
	Name    string `json:"name"`
	NIF     string `json:"nif"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (in InfoInput) validate(v validation.Violations) {
	validation.MaxLen("name", in.Name, 255, v)
	validation.MaxLen("nif", in.NIF, 20, v)
	validation.MaxLen("address", in.Address, 500, v)
	validation.MaxLen("phone", in.Phone, 50, v)
}

type Service struct {
	db          *gorm.DB
	signer      *auth.Signer
	invalidator Invalidator
	cost        int
}

// NewService builds the identity service. inv may be nil.
func NewService(db *gorm.DB, signer *auth.Signer, inv Invalidator) *Service {
	if inv == nil {
		inv = nopInvalidator{}
	}
	return &Service{db: db, signer: signer, invalidator: inv, cost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost, for tests.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Register creates a customer account awaiting approval.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.MinLen("password", in.Password, minPasswordLen, v)
	validation.Equal("confirm_password", in.ConfirmPassword, in.Password, v)
	InfoInput{Name: in.Name, NIF: in.NIF, Address: in.Address}.validate(v)
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        in.Email,
		Name:         in.Name,
		Password:     hash,
		NIF:          in.NIF,
		Address:      in.Address,
		AccountState: models.AccountPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
		role, err := findRoles(tx, []string{string(models.RoleCustomer)})
		if err != nil {
			return err
		}
		user.Roles = role
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user_registered", zap.Uint("user_id", user.ID))
	return &user, nil
}

// Login checks credentials and issues a token for an active account.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Roles").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountNotActive
	}
	return s.session(&user), nil
}

// Refresh issues a new token for an account that is still active.
func (s *Service) Refresh(ctx context.Context, userID uint) (*Session, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, auth.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountNotActive
	}
	return s.session(user), nil
}

func (s *Service) session(u *models.User) *Session {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return &Session{Token: s.signer.Issue(u.ID), UserName: name, Role: string(u.PrimaryRole())}
}

func (s *Service) load(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Roles").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}

func toInfo(u *models.User) *Info {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.RoleNames() {
		roles = append(roles, string(r))
	}
	return &Info{
		ID: u.ID, Email: u.Email, Name: u.Name, NIF: u.NIF, Address: u.Address, Phone: u.Phone,
		AccountState: string(u.AccountState), Roles: roles,
	}
}

// Info returns the caller's profile.
func (s *Service) Info(ctx context.Context, userID uint) (*Info, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toInfo(user), nil
}

// UpdateInfo replaces the caller's profile fields.
func (s *Service) UpdateInfo(ctx context.Context, userID uint, in InfoInput) (*Info, error) {
	v := validation.Violations{}
	in.validate(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"name": in.Name, "nif": in.NIF, "address": in.Address, "phone": in.Phone,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", userID, err)
	}
	user.Name, user.NIF, user.Address, user.Phone = in.Name, in.NIF, in.Address, in.Phone
	return toInfo(user), nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	v := validation.Violations{}
	validation.Required("current_password", current, v)
	validation.MinLen("new_password", next, minPasswordLen, v)
	if err := v.Err(); err != nil {
		return err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrWrongPassword
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	logging.FromContext(ctx).Info("password_changed", zap.Uint("user_id", userID))
	return nil
}

// ForgotPassword accepts a reset request. No mail is sent; the response never
// reveals whether the address is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Count(&n).Error
	if err != nil {
		logging.FromContext(ctx).Error("password_reset_lookup_failed", zap.Error(err))
		return
	}
	logging.FromContext(ctx).Info("password_reset_requested", zap.Bool("known", n > 0))
}

// ChangeState sets a user's account state.
func (s *Service) ChangeState(ctx context.Context, userID uint, state string) (*Info, error) {
	v := validation.Violations{}
	validation.OneOf("state", state, models.AccountStates(), v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("account_state", state).Error; err != nil {
		return nil, fmt.Errorf("update account state: %w", err)
	}
	user.AccountState = models.AccountState(state)
	s.invalidator.Invalidate(userID)
	logging.FromContext(ctx).Info("account_state_changed", zap.Uint("user_id", userID), zap.String("state", state))
	return toInfo(user), nil
}

// AssignRoles replaces a user's role memberships.
func (s *Service) AssignRoles(ctx context.Context, userID uint, roles []string) (*Info, error) {
	v := validation.Violations{}
	if len(roles) == 0 {
		v["roles"] = "required"
	}
	for _, r := range roles {
		if !models.RoleName(r).Valid() {
			v["roles"] = "invalid_value"
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findRoles(tx, roles)
		if err != nil {
			return err
		}
		if err := tx.Model(user).Association("Roles").Replace(found); err != nil {
			return err
		}
		user.Roles = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assign roles: %w", err)
	}
	s.invalidator.Invalidate(userID)
	logging.FromContext(ctx).Info("roles_assigned", zap.Uint("user_id", userID), zap.Strings("roles", roles))
	return toInfo(user), nil
}

// SeedAdmin ensures an active administrator account exists for email.
// It is idempotent and skipped when password is empty.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	lg := logging.FromContext(ctx)
	if password == "" {
		lg.Warn("admin_seed_skipped", zap.String("reason", "ADMIN_PASSWORD not set"))
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := findRoles(tx, []string{string(models.RoleAdmin)})
		if err != nil {
			return err
		}
		var user models.User
		err = tx.Preload("Roles").Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := s.hash(password)
			if err != nil {
				return err
			}
			user = models.User{Email: email, Name: "Administrador", Password: hash, AccountState: models.AccountActive, Roles: admin}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			lg.Info("admin_seeded", zap.Uint("user_id", user.ID))
			return nil
		}
		if err != nil {
			return err
		}
		if !user.HasRole(models.RoleAdmin) {
			return tx.Model(&user).Association("Roles").Append(admin)
		}
		return nil
	})
}

func findRoles(tx *gorm.DB, names []string) ([]models.Role, error) {
	var roles []models.Role
	if err := tx.Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("roles %v are not seeded", names)
	}
	return roles, nil
}
