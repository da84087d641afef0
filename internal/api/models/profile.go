package models

// Profile is a station owner's contact profile.
type Profile struct {
	ID        string     `json:"id"`
	FullName  *string    `json:"fullName,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt *Timestamp `json:"updatedAt,omitempty"`
}

// ProfileInput updates a profile. Nil fields are left unchanged.
type ProfileInput struct {
	FullName *string `json:"fullName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}
