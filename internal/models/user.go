package models

import (
	"net/mail"
	"strings"
	"time"
)

// User is a console account. Manager accounts (the PM user type) see every
// campaign; everyone else sees their own.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	Manager      bool      `json:"user_type_pm"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds the company details captured at registration.
type Profile struct {
	City        string `json:"city,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	PhoneNo     string `json:"phone_no,omitempty"`
	GST         string `json:"gst,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// UserType is the label returned to clients at login.
func (u *User) UserType() string {
	if u.Manager {
		return "pm"
	}
	return "user"
}

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID  int64
	Manager bool
}

// MinPasswordLength is the shortest password accepted on register or change.
const MinPasswordLength = 8

// Registration is the payload of the register endpoint.
type Registration struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Profile   Profile `json:"profile"`
}

// Validate normalises and checks the registration.
func (r *Registration) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
	if r.Email == "" {
		return NewValidationError("email", "email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return NewValidationError("email", "invalid email address")
	}
	if r.Username == "" {
		r.Username = r.Email
	}
	if len(r.Password) < MinPasswordLength {
		return NewValidationError("password", "password must be at least 8 characters")
	}
	return nil
}

// ProfileUpdate is the payload of the profile update endpoint. Nil fields
// are left unchanged; username and role are not editable.
type ProfileUpdate struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	City        *string `json:"city"`
	PhoneNo     *string `json:"phone_no"`
	CompanyName *string `json:"company_name"`
	GST         *string `json:"gst"`
	Logo        *string `json:"logo"`
}

// Apply validates the update and copies the set fields onto u.
func (p *ProfileUpdate) Apply(u *User) error {
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return NewValidationError("email", "invalid email address")
		}
		u.Email = email
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Profile.City, p.City)
	set(&u.Profile.PhoneNo, p.PhoneNo)
	set(&u.Profile.CompanyName, p.CompanyName)
	set(&u.Profile.GST, p.GST)
	set(&u.Profile.Logo, p.Logo)
	return nil
}
