package station

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mahatati/mahatati/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength  = 120
	MaxCityLength  = 120
	MaxTextLength  = 255
	MaxPhoneLength = 32
	MaxFuelTypes   = 16
)

func validateCreateInput(input *models.StationCreateRequest) []models.FieldError {
	var errs []models.FieldError

	errs = append(errs, validateRequired("stationName", input.Name, MaxNameLength)...)
	errs = append(errs, validateRequired("city", input.City, MaxCityLength)...)
	errs = append(errs, validateOptional("stationNumber", input.StationNumber, MaxTextLength)...)
	errs = append(errs, validateOptional("address", input.Address, MaxTextLength)...)
	errs = append(errs, validateOptional("phone", input.Phone, MaxPhoneLength)...)
	errs = append(errs, validateFuelTypes(input.FuelTypes)...)
	errs = append(errs, validateCoordinates(input.Lat, input.Lng)...)
	errs = append(errs, validateURL("passportImageUrl", input.PassportImageURL)...)
	errs = append(errs, validateURL("licenseImageUrl", input.LicenseImageURL)...)

	return errs
}

func validateUpdateInput(input *models.StationUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		errs = append(errs, validateRequired("stationName", *input.Name, MaxNameLength)...)
	}
	if input.City != nil {
		errs = append(errs, validateRequired("city", *input.City, MaxCityLength)...)
	}
	errs = append(errs, validateOptional("stationNumber", input.StationNumber, MaxTextLength)...)
	errs = append(errs, validateOptional("address", input.Address, MaxTextLength)...)
	errs = append(errs, validateOptional("phone", input.Phone, MaxPhoneLength)...)
	errs = append(errs, validateFuelTypes(input.FuelTypes)...)
	errs = append(errs, validateCoordinates(input.Lat, input.Lng)...)
	errs = append(errs, validateURL("passportImageUrl", input.PassportImageURL)...)
	errs = append(errs, validateURL("licenseImageUrl", input.LicenseImageURL)...)

	return errs
}

// validateRequired checks a mandatory text field. Length counts runes so
// Arabic names get the same limit as Latin ones.
func validateRequired(field, value string, maxLen int) []models.FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return []models.FieldError{{Field: field, Message: "is required", Code: "REQUIRED"}}
	}
	if utf8.RuneCountInString(v) > maxLen {
		return []models.FieldError{tooLong(field, maxLen)}
	}
	return nil
}

func validateOptional(field string, value *string, maxLen int) []models.FieldError {
	if value == nil {
		return nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(*value)) > maxLen {
		return []models.FieldError{tooLong(field, maxLen)}
	}
	return nil
}

func tooLong(field string, maxLen int) models.FieldError {
	return models.FieldError{
		Field:   field,
		Message: "must be at most " + strconv.Itoa(maxLen) + " characters",
		Code:    "TOO_LONG",
	}
}

func validateFuelTypes(fuelTypes []string) []models.FieldError {
	if len(fuelTypes) > MaxFuelTypes {
		return []models.FieldError{{
			Field:   "fuelTypes",
			Message: "must contain at most " + strconv.Itoa(MaxFuelTypes) + " entries",
			Code:    "TOO_MANY",
		}}
	}
	for _, f := range fuelTypes {
		if utf8.RuneCountInString(strings.TrimSpace(f)) > 32 {
			return []models.FieldError{{Field: "fuelTypes", Message: "entries must be at most 32 characters", Code: "TOO_LONG"}}
		}
	}
	return nil
}

// validateCoordinates requires lat and lng to be given together and in range.
func validateCoordinates(lat, lng *float64) []models.FieldError {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return []models.FieldError{{Field: "lat", Message: "lat and lng must be provided together", Code: "INCOMPLETE"}}
	}

	var errs []models.FieldError
	if *lat < -90 || *lat > 90 {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"})
	}
	if *lng < -180 || *lng > 180 {
		errs = append(errs, models.FieldError{Field: "lng", Message: "must be between -180 and 180", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// validateURL accepts an empty value (cleared) or an absolute http(s) URL.
func validateURL(field string, value *string) []models.FieldError {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}

	u, err := url.Parse(strings.TrimSpace(*value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []models.FieldError{{Field: field, Message: "must be an http or https URL", Code: "INVALID_URL"}}
	}
	return nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// optionalString trims the value and maps blank input to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// normalizeFuelTypes trims tags, drops blanks and duplicates, and keeps
// the first-seen order. Unknown tags are kept as given.
func normalizeFuelTypes(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
