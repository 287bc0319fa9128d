package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	authUsernameKey        = "auth_username"
	authPasswordHashKey    = "auth_password_hash"
	authPasswordChangedKey = "auth_password_changed"

	minPasswordLength = 6
)

// VerifyCredentials checks a username/password pair against the stored
// admin account. A wrong username or password is (false, nil); an error
// means the stored hash could not be checked at all.
func (d *Database) VerifyCredentials(ctx context.Context, username, password string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("verify_credentials", start, err) }()

	storedUser, _ := d.GetSetting(ctx, authUsernameKey, nil).(string)
	storedHash, _ := d.GetSetting(ctx, authPasswordHashKey, nil).(string)

	if username != storedUser {
		// Burn a comparison anyway so both failure modes cost the same.
		_ = bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check stored password hash: %w", err)
	}

	return true, nil
}

// UpdatePassword replaces the admin password after verifying the current
// one. The new password must differ from the current one and meet the
// minimum length.
func (d *Database) UpdatePassword(ctx context.Context, current, next string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_password", start, err) }()

	storedHash, _ := d.GetSetting(ctx, authPasswordHashKey, nil).(string)

	err = bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(current))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		err = fmt.Errorf("%w: current password is incorrect", ErrValidation)
		return err
	}
	if err != nil {
		err = fmt.Errorf("failed to check stored password hash: %w", err)
		return err
	}

	if next == current {
		err = fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
		return err
	}

	err = d.storePassword(ctx, next)
	return err
}

// SetInitialPassword stores a first admin password. It refuses the shipped
// default outright so a kiosk cannot be "secured" with it.
func (d *Database) SetInitialPassword(ctx context.Context, next string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_password", start, err) }()

	if next == defaultPassword {
		err = fmt.Errorf("%w: refusing to keep the shipped default password", ErrValidation)
		return err
	}

	err = d.storePassword(ctx, next)
	return err
}

// PasswordChanged reports whether the shipped default password has been
// replaced.
func (d *Database) PasswordChanged(ctx context.Context) bool {
	changed, _ := d.GetSetting(ctx, authPasswordChangedKey, false).(bool)
	return changed
}

func (d *Database) storePassword(ctx context.Context, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := d.SetSetting(ctx, authPasswordHashKey, string(hash)); err != nil {
		return err
	}
	return d.SetSetting(ctx, authPasswordChangedKey, true)
}
