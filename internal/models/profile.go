package models

import "time"

// UserRole is the authorization capability carried in access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Profile is an authenticated identity together with its personal data.
type Profile struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	FullName     string    `db:"full_name" json:"full_name"`
	CPF          *string   `db:"cpf" json:"cpf,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Address      *string   `db:"address" json:"address,omitempty"`
	Number       *string   `db:"number" json:"number,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	State        *string   `db:"state" json:"state,omitempty"`
	ZipCode      *string   `db:"zip_code" json:"zip_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileUpdateRequest carries the editable personal fields.
type ProfileUpdateRequest struct {
	FullName string `json:"full_name" validate:"required,min=3,max=120"`
	CPF      string `json:"cpf" validate:"omitempty,max=14"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=200"`
	Number   string `json:"number" validate:"omitempty,max=20"`
	City     string `json:"city" validate:"omitempty,max=100"`
	State    string `json:"state" validate:"omitempty,len=2"`
	ZipCode  string `json:"zip_code" validate:"omitempty,max=9"`
}

// StudentSummary is a row of the admin student list.
type StudentSummary struct {
	Profile
	EnrollmentCount int `db:"enrollment_count" json:"enrollment_count"`
}

// StudentFilter narrows the admin student list.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
