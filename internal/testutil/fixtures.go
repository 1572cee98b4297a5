package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authrelay/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// NewTestUser creates a test user with sensible defaults
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:       nextID("user"),
		Username: fmt.Sprintf("testuser%d", idCounter.Load()),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = o.Username + "@example.com"
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	return &domain.User{
		ID:        o.ID,
		Email:     o.Email,
		Username:  o.Username,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.CreatedAt,
	}
}

func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

func WithUsername(username string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Username = username
	}
}

func WithEmail(email string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Email = email
	}
}

// testSigningKey signs fixture tokens. The relay never verifies signatures.
var testSigningKey = []byte("authrelay-test-key")

// NewAccessToken returns a signed JWT expiring at exp
func NewAccessToken(exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   nextID("user"),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(exp.Add(-15 * time.Minute)),
	})
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}
