package database

import (
	"context"
	"errors"
	"testing"
)

func TestVerifyCredentialsDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// A fresh store answers for the shipped account
	ok, err := db.VerifyCredentials(ctx, "admin", "showgo")
	if err != nil {
		t.Fatalf("VerifyCredentials failed: %v", err)
	}
	if !ok {
		t.Error("Expected default credentials to verify on a fresh store")
	}
}

func TestVerifyCredentialsRejections(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong username", "root", "showgo"},
		{"wrong password", "admin", "wrong"},
		{"both wrong", "root", "wrong"},
		{"empty password", "admin", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := db.VerifyCredentials(ctx, tt.username, tt.password)
			if err != nil {
				t.Fatalf("VerifyCredentials failed: %v", err)
			}
			if ok {
				t.Error("Expected rejection")
			}
		})
	}
}

func TestVerifyCredentialsCorruptHash(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if err := db.SetSetting(ctx, authPasswordHashKey, "not-a-bcrypt-hash"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	_, err := db.VerifyCredentials(ctx, "admin", "showgo")
	if err == nil {
		t.Error("Expected error for corrupt stored hash")
	}
}

func TestUpdatePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Wrong current password
	if err := db.UpdatePassword(ctx, "wrong", "newsecret"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for wrong current password, got %v", err)
	}

	// Reusing the current password
	if err := db.UpdatePassword(ctx, "showgo", "showgo"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for password reuse, got %v", err)
	}

	// Too short
	if err := db.UpdatePassword(ctx, "showgo", "tiny"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for short password, got %v", err)
	}

	// Success path
	if err := db.UpdatePassword(ctx, "showgo", "newsecret"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	ok, err := db.VerifyCredentials(ctx, "admin", "newsecret")
	if err != nil {
		t.Fatalf("VerifyCredentials failed: %v", err)
	}
	if !ok {
		t.Error("New password does not verify")
	}

	ok, err = db.VerifyCredentials(ctx, "admin", "showgo")
	if err != nil {
		t.Fatalf("VerifyCredentials failed: %v", err)
	}
	if ok {
		t.Error("Old password still verifies")
	}

	if changed := db.GetSetting(ctx, authPasswordChangedKey, nil); changed != true {
		t.Errorf("Expected changed flag to be set, got %v", changed)
	}
}

func TestPasswordChanged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if db.PasswordChanged(ctx) {
		t.Error("Expected fresh store to report the default password")
	}

	if err := db.UpdatePassword(ctx, "showgo", "newsecret"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	if !db.PasswordChanged(ctx) {
		t.Error("Expected changed flag after an update")
	}
}

func TestSetInitialPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// The shipped default is never acceptable
	if err := db.SetInitialPassword(ctx, "showgo"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for shipped default, got %v", err)
	}

	if err := db.SetInitialPassword(ctx, "lobby-kiosk-7"); err != nil {
		t.Fatalf("SetInitialPassword failed: %v", err)
	}

	ok, err := db.VerifyCredentials(ctx, "admin", "lobby-kiosk-7")
	if err != nil {
		t.Fatalf("VerifyCredentials failed: %v", err)
	}
	if !ok {
		t.Error("Initial password does not verify")
	}

	if changed := db.GetSetting(ctx, authPasswordChangedKey, nil); changed != true {
		t.Errorf("Expected changed flag to be set, got %v", changed)
	}
}
