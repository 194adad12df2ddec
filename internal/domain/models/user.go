package models

import "strings"

// User is the identity record reported by the identity provider.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	FullName  string `json:"fullName,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// DisplayName returns the full name, else first and last name, else the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

// Username is the account name sent to the relying party: the email, else the id.
func (u *User) Username() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// Clone returns a copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Profile mirrors the backend user serializer.
type Profile struct {
	ID              interface{} `json:"id"`
	ClerkID         string      `json:"clerk_id,omitempty"`
	Email           string      `json:"email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	PhoneNumber     string      `json:"phone_number,omitempty"`
	ProfileImageURL string      `json:"profile_image_url,omitempty"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       string      `json:"created_at,omitempty"`
	UpdatedAt       string      `json:"updated_at,omitempty"`
}

// ProfileUpdate carries the writable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName       *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName        *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber     *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitempty,url"`
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.PhoneNumber == nil && p.ProfileImageURL == nil
}
