// Account, challenge and session records kept by the auth file repo.
package auth

import "time"

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Purpose says what a one-time code unlocks.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// Label names the purpose for people.
func (p Purpose) Label() string {
	switch p {
	case PurposeVerify:
		return "Verification"
	case PurposeReset:
		return "Password reset"
	default:
		return string(p)
	}
}

// Challenge is an outstanding one-time code. Only its hash is stored.
type Challenge struct {
	Email       string    `json:"email"`
	Purpose     Purpose   `json:"purpose"`
	CodeHash    string    `json:"codeHash"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RequestedAt time.Time `json:"requestedAt"`
	Attempts    int       `json:"attempts"`
}

// SessionRecord is the server-side half of a session.
type SessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
