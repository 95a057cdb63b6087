package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rangolabs/tracker/backend/internal/auth"
	"gorm.io/gorm"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:users_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cipher, err := auth.NewPasswordCipher(testCipherKey)
	if err != nil {
		t.Fatalf("failed to build cipher: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database: db,
		Cipher:   cipher,
		Clock:    func() time.Time { return time.Unix(1790000000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to construct users service: %v", err)
	}
	return service, db
}

func TestRegisterStoresEncryptedPassword(t *testing.T) {
	service, db := newTestService(t)

	user, err := service.Register(context.Background(), "rango_1", "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.UserID == 0 {
		t.Fatalf("expected an assigned user id")
	}

	var stored User
	if err := db.Take(&stored).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if stored.Password == "Passw0rd!" || stored.Password == "" {
		t.Fatalf("password must be stored encrypted, got %q", stored.Password)
	}
	if stored.IV == "" {
		t.Fatalf("iv must be stored beside the ciphertext")
	}
}

func TestRegisterEnforcesRules(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Register(context.Background(), "bad", "Passw0rd!"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	if _, err := service.Register(context.Background(), "rango_1", "weak"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Register(context.Background(), "rango_1", "Passw0rd!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Register(context.Background(), "rango_1", "0therPass!"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	service, _ := newTestService(t)

	registered, err := service.Register(context.Background(), "rango_1", "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := service.Authenticate(context.Background(), "rango_1", "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.UserID != registered.UserID {
		t.Fatalf("unexpected user id: %d", user.UserID)
	}

	if _, err := service.Authenticate(context.Background(), "rango_1", "WrongPass1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "nobody_1", "Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	service, db := newTestService(t)

	user, err := service.Register(context.Background(), "rango_1", "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var before User
	if err := db.Take(&before).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}

	if err := service.ChangePassword(context.Background(), user.UserID, "Passw0rd!", "N3wPassword!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var after User
	if err := db.Take(&after).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if after.Password == before.Password || after.IV == before.IV {
		t.Fatalf("new password must be re-encrypted under a fresh iv")
	}

	if _, err := service.Authenticate(context.Background(), "rango_1", "N3wPassword!"); err != nil {
		t.Fatalf("new password should authenticate: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "rango_1", "Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestChangePasswordFailurePaths(t *testing.T) {
	service, _ := newTestService(t)

	user, err := service.Register(context.Background(), "rango_1", "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := service.ChangePassword(context.Background(), 999, "Passw0rd!", "N3wPassword!"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), user.UserID, "WrongPass1!", "N3wPassword!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), user.UserID, "Passw0rd!", "weak"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}
