package station

import (
	"strconv"
	"strings"
)

// StatusFilter selects stations by operating status.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// FuelFilter selects stations offering a fuel type. FuelAll disables it.
type FuelFilter string

const (
	FuelAll         FuelFilter = "all"
	FuelBenzineOnly FuelFilter = FuelFilter(FuelBenzine)
	FuelDieselOnly  FuelFilter = FuelFilter(FuelDiesel)
)

// VerificationFilter selects stations by verification status.
type VerificationFilter string

const (
	VerificationAll VerificationFilter = "all"
)

// QueryParams are the conjunctive filters applied by Filter.
// Zero values behave like "all".
type QueryParams struct {
	SearchTerm   string
	Status       StatusFilter
	Fuel         FuelFilter
	Verification VerificationFilter

	// NameAndCityOnly keeps the station number out of the free-text match.
	NameAndCityOnly bool
}

// Filter returns the records matching every criterion in params, in their
// original order. The input slice and its records are never modified.
func Filter(records []*Station, params QueryParams) []*Station {
	result := make([]*Station, 0, len(records))
	term := strings.ToLower(params.SearchTerm)

	for _, s := range records {
		if s == nil {
			continue
		}
		if !matchesText(s, params.SearchTerm, term, !params.NameAndCityOnly) {
			continue
		}
		if !matchesStatus(s, params.Status) {
			continue
		}
		if !matchesFuel(s, params.Fuel) {
			continue
		}
		if !matchesVerification(s, params.Verification) {
			continue
		}
		result = append(result, s)
	}

	return result
}

// matchesText applies the free-text criterion. Name and city compare
// case-insensitively; the station number compares against the raw term.
func matchesText(s *Station, raw, lowered string, withNumber bool) bool {
	if raw == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Name), lowered) {
		return true
	}
	if s.City != nil && strings.Contains(strings.ToLower(*s.City), lowered) {
		return true
	}
	if withNumber && s.StationNumber != nil && strings.Contains(*s.StationNumber, raw) {
		return true
	}
	return false
}

func matchesStatus(s *Station, f StatusFilter) bool {
	switch f {
	case StatusActive:
		return s.IsActive
	case StatusInactive:
		return !s.IsActive
	default:
		return true
	}
}

func matchesFuel(s *Station, f FuelFilter) bool {
	switch f {
	case FuelBenzineOnly, FuelDieselOnly:
		return s.HasFuelType(string(f))
	default:
		return true
	}
}

func matchesVerification(s *Station, f VerificationFilter) bool {
	if !VerificationStatus(f).Valid() {
		return true
	}
	return string(s.VerificationStatus) == string(f)
}

// Summarize counts stations by activity and verification state in one pass.
func Summarize(records []*Station) Summary {
	var sum Summary
	for _, s := range records {
		if s == nil {
			continue
		}
		sum.Total++
		if s.IsActive {
			sum.Active++
		}
		switch s.VerificationStatus {
		case VerificationVerified:
			sum.Verified++
		case VerificationRejected:
			sum.Rejected++
		default:
			sum.Pending++
		}
	}
	return sum
}

// Mappable returns the stations that carry both coordinates, in order.
func Mappable(records []*Station) []*Station {
	result := make([]*Station, 0, len(records))
	for _, s := range records {
		if s != nil && s.HasLocation() {
			result = append(result, s)
		}
	}
	return result
}

// Center returns the mean position of the mappable stations.
// The boolean is false when no station has coordinates.
func Center(records []*Station) (Point, bool) {
	mappable := Mappable(records)
	if len(mappable) == 0 {
		return Point{}, false
	}

	var lat, lng float64
	for _, s := range mappable {
		lat += *s.Lat
		lng += *s.Lng
	}
	n := float64(len(mappable))
	return Point{Lat: lat / n, Lng: lng / n}, true
}

// DirectionsURL returns a Google Maps directions link to the station, or ""
// when the station has no coordinates.
func DirectionsURL(s *Station) string {
	if s == nil || !s.HasLocation() {
		return ""
	}
	return "https://www.google.com/maps/dir/?api=1&destination=" +
		strconv.FormatFloat(*s.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(*s.Lng, 'f', -1, 64)
}

// ParseStatusFilter maps query input to a StatusFilter, defaulting to all.
func ParseStatusFilter(v string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(v))) {
	case StatusActive:
		return StatusActive
	case StatusInactive:
		return StatusInactive
	default:
		return StatusAll
	}
}

// ParseFuelFilter maps query input to a FuelFilter, defaulting to all.
func ParseFuelFilter(v string) FuelFilter {
	switch FuelFilter(strings.ToLower(strings.TrimSpace(v))) {
	case FuelBenzineOnly:
		return FuelBenzineOnly
	case FuelDieselOnly:
		return FuelDieselOnly
	default:
		return FuelAll
	}
}

// ParseVerificationFilter maps query input to a VerificationFilter,
// defaulting to all.
func ParseVerificationFilter(v string) VerificationFilter {
	status := VerificationStatus(strings.ToLower(strings.TrimSpace(v)))
	if status.Valid() {
		return VerificationFilter(status)
	}
	return VerificationAll
}

// ParseVerificationStatus parses a verification state.
func ParseVerificationStatus(v string) (VerificationStatus, bool) {
	status := VerificationStatus(strings.ToLower(strings.TrimSpace(v)))
	return status, status.Valid()
}
