// Package profile manages station owner contact profiles.
//
// A profile holds only the owner's display name and phone number. Email
// addresses stay with the identity provider and are never copied here.
package profile

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// Validation limits.
const (
	MaxFullNameLength = 120
	MaxPhoneLength    = 32
)

// Profile is an owner's contact profile, keyed by the identity provider's
// user ID.
type Profile struct {
	ID        string
	FullName  *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	cpy := *p
	if p.FullName != nil {
		v := *p.FullName
		cpy.FullName = &v
	}
	if p.Phone != nil {
		v := *p.Phone
		cpy.Phone = &v
	}
	return &cpy
}
