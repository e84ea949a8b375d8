package models

// User is an account as exposed to clients. The password hash never leaves the
// store layer.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}
