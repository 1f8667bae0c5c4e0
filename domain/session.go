package domain

import "time"

// SessionUser is the password-stripped projection of a User held in the
// session mirror. It must be refreshed from the store in the same request
// that mutates the ledger, or reads through the mirror drift from durable
// state.
type SessionUser struct {
	ID          uint    `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	IsAdmin     bool    `json:"is_admin"`
	IsActivated bool    `json:"is_activated"`
	Balance     float64 `json:"balance"`
	Gems        int64   `json:"gems"`
	Spins       int64   `json:"spins"`
	TotalSpins  int64   `json:"total_spins"`
}

// SessionData is what the session store holds per login.
type SessionData struct {
	User        SessionUser `json:"user"`
	AccessToken string      `json:"access_token"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// FlashMessage is a one-shot status message attached to a session. It is
// deleted the moment it is read.
type FlashMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewSessionUser builds the mirror projection from a persisted record.
func NewSessionUser(u User) SessionUser {
	return SessionUser{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		IsAdmin:     u.IsAdmin,
		IsActivated: u.IsActivated,
		Balance:     u.Balance,
		Gems:        u.Gems,
		Spins:       u.Spins,
		TotalSpins:  u.TotalSpins,
	}
}
