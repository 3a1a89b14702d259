package models

// User is the authenticated identity attached to each request.
type User struct {
	ID    string
	Name  string
	Admin bool
}
