package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает единую учётную запись пользователя платформы.
// Роль хранится явным тегом, специфичные данные — в профильных записях.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Skill типизированный навык фрилансера.
type Skill struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}

// ClientProfile профильная запись клиента.
type ClientProfile struct {
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	CompanyName   string    `db:"company_name" json:"company_name"`
	ContactPerson *string   `db:"contact_person" json:"contact_person,omitempty"`
	Verified      bool      `db:"verified" json:"verified"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FreelancerProfile профильная запись фрилансера.
type FreelancerProfile struct {
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	ProfessionalTitle *string   `db:"professional_title" json:"professional_title,omitempty"`
	FirstName         string    `db:"first_name" json:"first_name"`
	LastName          string    `db:"last_name" json:"last_name"`
	HourlyRate        *float64  `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Skills            []Skill   `db:"-" json:"skills"`
	Verified          bool      `db:"verified" json:"verified"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// DisputeManagerProfile профильная запись менеджера споров.
// DisputePerWeek задаёт недельную квоту передаваемых ему дел.
type DisputeManagerProfile struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	FullName       string    `db:"full_name" json:"full_name"`
	DisputePerWeek int       `db:"dispute_per_week" json:"dispute_per_week"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
