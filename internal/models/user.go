// Package models contains the domain structures of the caixinha:
// users, quotas and their monthly installments, loans, monthly raffles
// with their tickets, and the singleton system configuration.
package models

import "time"

// Roles a user can hold. Admins manage the caixinha and are excluded
// from quotas, loans and raffles.
const (
	RoleAdmin      = "admin"
	RoleCotista    = "cotista"
	RoleNaoCotista = "nao_cotista"
)

// User represents a registered member of the caixinha.
type User struct {
	UID          string // Unique identifier
	Email        string // E-mail, used to log in
	FullName     string // Display name
	PasswordHash string // bcrypt hash
	Role         string // admin, cotista or nao_cotista
	CreatedAt    time.Time
}

// DummyRegisterUser carries a registration request before validation.
type DummyRegisterUser struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin carries a login request before validation.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyUpdateRole carries an admin request to change a member role.
type DummyUpdateRole struct {
	Role string `json:"role" validate:"required,oneof=admin cotista nao_cotista"`
}
