package users

import (
	"context"
	"errors"
	"time"

	"github.com/rangolabs/tracker/backend/internal/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrInvalidUsername indicates the username fails the account rules.
	ErrInvalidUsername = errors.New("users: username does not meet requirements")
	// ErrInvalidPassword indicates the password fails the account rules.
	ErrInvalidPassword = errors.New("users: password does not meet requirements")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("users: username is already taken")
	// ErrInvalidCredentials covers both unknown users and wrong passwords so
	// login failures are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrNotFound indicates the referenced account does not exist.
	ErrNotFound = errors.New("users: user not found")

	errMissingDatabase = errors.New("database handle is required")
	errMissingCipher   = errors.New("password cipher is required")
	noOpLogger         = zap.NewNop()
)

// ServiceConfig describes the dependencies of the account service.
type ServiceConfig struct {
	Database *gorm.DB
	Cipher   *auth.PasswordCipher
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages account registration and credential verification. It is
// the only component that ever sees raw passwords; everything downstream
// works with the authenticated user id.
type Service struct {
	db     *gorm.DB
	cipher *auth.PasswordCipher
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Cipher == nil {
		return nil, errMissingCipher
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, cipher: cfg.Cipher, clock: clock, logger: logger}, nil
}

// Register validates the credential rules, encrypts the password with a
// fresh IV, and persists the account.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	if !auth.IsUsernameValid(username) {
		return User{}, ErrInvalidUsername
	}
	if !auth.IsPasswordValid(password) {
		return User{}, ErrInvalidPassword
	}

	var existing User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&existing).Error
	if err == nil {
		return User{}, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("user lookup failed", zap.Error(err), zap.String("username", username))
		return User{}, err
	}

	encrypted, iv, err := s.cipher.Encrypt(password)
	if err != nil {
		s.logger.Error("password encryption failed", zap.Error(err))
		return User{}, err
	}

	user := User{Username: username, Password: encrypted, IV: iv, CreatedAt: s.clock().UTC()}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, ErrUsernameTaken
		}
		s.logger.Error("user insert failed", zap.Error(err), zap.String("username", username))
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies a username/password pair by decrypting the stored
// password and comparing against the supplied plaintext.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.Error(err), zap.String("username", username))
		return User{}, err
	}

	stored, err := s.cipher.Decrypt(user.Password, user.IV)
	if err != nil {
		s.logger.Error("password decryption failed", zap.Error(err), zap.Uint("user_id", user.UserID))
		return User{}, ErrInvalidCredentials
	}
	if stored != password {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword verifies the current password and stores the new one,
// re-encrypted under a fresh IV. Lookup and update go by the primary key.
func (s *Service) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	var user User
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.Error(err), zap.Uint("user_id", userID))
		return err
	}

	stored, err := s.cipher.Decrypt(user.Password, user.IV)
	if err != nil {
		s.logger.Error("password decryption failed", zap.Error(err), zap.Uint("user_id", userID))
		return ErrInvalidCredentials
	}
	if stored != currentPassword {
		return ErrInvalidCredentials
	}

	if !auth.IsPasswordValid(newPassword) {
		return ErrInvalidPassword
	}

	encrypted, iv, err := s.cipher.Encrypt(newPassword)
	if err != nil {
		s.logger.Error("password encryption failed", zap.Error(err), zap.Uint("user_id", userID))
		return err
	}

	err = s.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"password": encrypted, "iv": iv}).Error
	if err != nil {
		s.logger.Error("password update failed", zap.Error(err), zap.Uint("user_id", userID))
		return err
	}
	return nil
}
