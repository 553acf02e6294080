package models

import "time"

// Entry is a password record stored inside a group. Ownership is derived by
// joining through the containing group to its user; an entry ID alone never
// grants access.
type Entry struct {
	ID       string
	GroupID  string
	Name     string
	UserName string
	Password string
	URL      string
	// CreatedAt orders entries within a group, giving limit/offset
	// pagination a stable sort key under concurrent inserts.
	CreatedAt time.Time
}
