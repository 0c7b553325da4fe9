package models

import "time"

// User is a staff or admin account. Public visitors are anonymous; only
// back-office operations require an account.
type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FullName     string    `json:"full_name,omitempty" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser" db:"is_superuser"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// EstStaff is the single gate for all back-office routes.
func (u *User) EstStaff() bool {
	return u.IsStaff || u.IsSuperuser
}

// PermissionGroup is a named bundle of entity permissions, created by the
// bootstrap tool and assignable to users.
type PermissionGroup struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
