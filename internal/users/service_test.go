package users

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "plenum.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, admin bool) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	account := User{
		UserID:       "user-" + username,
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  username,
		IsAdmin:      admin,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return account
}

func TestAuthenticate(t *testing.T) {
	db := openTestDatabase(t)
	seedUser(t, db, "alice", "correct horse", true)
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	account, err := service.Authenticate(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("expected successful login: %v", err)
	}
	if account.UserID != "user-alice" || !account.IsAdmin {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := service.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password must fail with invalid credentials, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "mallory", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user must fail with invalid credentials, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("blank credentials must fail, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	db := openTestDatabase(t)
	seedUser(t, db, "bob", "hunter2", false)
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	account, err := service.GetUser(context.Background(), "user-bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Username != "bob" {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := service.GetUser(context.Background(), "user-x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
