package domain

import "time"

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil && !u.ConfirmedAt.IsZero()
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}
