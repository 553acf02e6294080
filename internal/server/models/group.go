package models

// Group is a node in a user's group tree. Exactly one group per user has
// IsRoot set; that group has no parent and can never be deleted, moved, or
// replaced. Every other group has a parent owned by the same user.
type Group struct {
	ID     string
	UserID string
	Name   string
	// ParentID is nil for the root group only.
	ParentID *string
	IsRoot   bool
}
