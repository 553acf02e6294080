// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Every user owns exactly one root group and,
// transitively, all groups and entries beneath it.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
