package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a listener account. Only the fields the query and
// recompute layers need are modeled here; profile data lives elsewhere.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate validates the user fields.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: user name cannot be empty", ErrValidation)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, u.Email)
	}
	return nil
}

// GenerateUserID creates a UUID for a user.
func GenerateUserID() string {
	return uuid.New().String()
}
