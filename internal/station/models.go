// Package station provides fuel station listings: the query engine used by
// the public directory and dashboards, plus persistence and management.
package station

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrStationNotFound = errors.New("station not found")
)

// VerificationStatus is the administrator-assigned trust state of a listing.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Valid reports whether s is one of the known verification states.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// Known fuel type tags. Stations may carry other tags, which are kept verbatim.
const (
	FuelBenzine = "benzine"
	FuelDiesel  = "diesel"
)

// KnownFuelTypes lists the fuel tags offered in the registration form.
var KnownFuelTypes = []string{FuelBenzine, FuelDiesel}

// Station is a fuel station listing.
type Station struct {
	ID            string
	OwnerID       string
	Name          string
	StationNumber *string
	City          *string
	Address       *string
	Phone         *string

	// FuelTypes is nil when the listing never declared any fuel types.
	FuelTypes []string

	IsActive           bool
	VerificationStatus VerificationStatus

	Lat *float64
	Lng *float64

	PassportImageURL *string
	LicenseImageURL  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsVerified mirrors the legacy is_verified column.
func (s *Station) IsVerified() bool {
	return s.VerificationStatus == VerificationVerified
}

// HasLocation reports whether both coordinates are present.
func (s *Station) HasLocation() bool {
	return s.Lat != nil && s.Lng != nil
}

// HasFuelType reports whether the station offers the given fuel tag.
func (s *Station) HasFuelType(fuel string) bool {
	for _, f := range s.FuelTypes {
		if f == fuel {
			return true
		}
	}
	return false
}

// Point is a geographic coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Summary holds aggregate counts over a station list.
type Summary struct {
	Total    int
	Active   int
	Verified int
	Pending  int
	Rejected int
}

// copyStation returns a deep copy so callers cannot mutate stored records.
func copyStation(s *Station) *Station {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.StationNumber = copyString(s.StationNumber)
	cpy.City = copyString(s.City)
	cpy.Address = copyString(s.Address)
	cpy.Phone = copyString(s.Phone)
	cpy.PassportImageURL = copyString(s.PassportImageURL)
	cpy.LicenseImageURL = copyString(s.LicenseImageURL)
	cpy.Lat = copyFloat(s.Lat)
	cpy.Lng = copyFloat(s.Lng)
	if s.FuelTypes != nil {
		cpy.FuelTypes = append([]string{}, s.FuelTypes...)
	}
	return &cpy
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
