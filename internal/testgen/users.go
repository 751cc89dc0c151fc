package testgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// Password is the password of every generated user.
const Password = "password123"

var (
	hashOnce sync.Once
	hash     string
)

func passwordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		hash = string(b)
	})
	return hash
}

// CreateUser inserts an active user with the given role.
func CreateUser(t *testing.T, db *bun.DB, username, role string) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: passwordHash(t),
		Role:         role,
		IsActive:     true,
	}
	if _, err := db.NewInsert().Model(user).Exec(context.Background()); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}
