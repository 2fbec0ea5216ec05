package domain

import "time"

// User represents an account owning bookmarks.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch carries a partial profile edit. Nil fields are left untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil
}
