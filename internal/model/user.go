package model

import "time"

// User is a registered account. Meals and the profile hang off User.ID.
//
// An account is created either with email + password or through GitHub
// sign-in, so both Email/PasswordHash and GitHubID are optional on their own.
// The store enforces uniqueness of email and github_id separately.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"githubId,omitempty"`
	Login        string    `json:"login"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
