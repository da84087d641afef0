package models

// Station is the API representation of a fuel station. The document URLs
// are only set on owner and administrator views.
type Station struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"ownerId"`
	Name               string    `json:"stationName"`
	StationNumber      *string   `json:"stationNumber,omitempty"`
	City               *string   `json:"city,omitempty"`
	Address            *string   `json:"address,omitempty"`
	Phone              *string   `json:"phone,omitempty"`
	FuelTypes          []string  `json:"fuelTypes,omitempty"`
	IsActive           bool      `json:"isActive"`
	IsVerified         bool      `json:"isVerified"`
	VerificationStatus string    `json:"verificationStatus"`
	Location           *Location `json:"location,omitempty"`
	DirectionsURL      *string   `json:"directionsUrl,omitempty"`
	PassportImageURL   *string   `json:"passportImageUrl,omitempty"`
	LicenseImageURL    *string   `json:"licenseImageUrl,omitempty"`
	Decisions          []string  `json:"decisions,omitempty"`
	CreatedAt          Timestamp `json:"createdAt"`
	UpdatedAt          Timestamp `json:"updatedAt"`
}

// StationSummary holds dashboard counters over a station list.
type StationSummary struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// StationQuery echoes the effective filters of a search.
type StationQuery struct {
	Q            string `json:"q"`
	Status       string `json:"status"`
	Fuel         string `json:"fuel"`
	Verification string `json:"verification,omitempty"`
}

// MapMarker is a station pin on the directory map.
type MapMarker struct {
	StationID     string   `json:"stationId"`
	Name          string   `json:"stationName"`
	Location      Location `json:"location"`
	DirectionsURL string   `json:"directionsUrl"`
}

// StationMap holds the map view of a search result.
type StationMap struct {
	Center  *Location   `json:"center,omitempty"`
	Markers []MapMarker `json:"markers"`
}

// StationSearchResponse is returned by the public directory search.
type StationSearchResponse struct {
	Items   []Station      `json:"items"`
	Summary StationSummary `json:"summary"`
	Map     StationMap     `json:"map"`
	Query   StationQuery   `json:"query"`
}

// OwnerStationsResponse is returned by the owner dashboard.
type OwnerStationsResponse struct {
	Items   []Station      `json:"items"`
	Summary StationSummary `json:"summary"`
}

// AdminStationsResponse is returned by the administrator dashboard.
type AdminStationsResponse struct {
	Items       []Station      `json:"items"`
	Summary     StationSummary `json:"summary"`
	TotalOwners int            `json:"totalOwners"`
	Query       StationQuery   `json:"query"`
}

// StationCreateRequest is the body of a station registration.
type StationCreateRequest struct {
	Name             string   `json:"stationName"`
	StationNumber    *string  `json:"stationNumber,omitempty"`
	City             string   `json:"city"`
	Address          *string  `json:"address,omitempty"`
	Phone            *string  `json:"phone,omitempty"`
	FuelTypes        []string `json:"fuelTypes,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	PassportImageURL *string  `json:"passportImageUrl,omitempty"`
	LicenseImageURL  *string  `json:"licenseImageUrl,omitempty"`
}

// StationUpdateRequest is a partial station update. Nil fields are left unchanged.
type StationUpdateRequest struct {
	Name             *string  `json:"stationName,omitempty"`
	StationNumber    *string  `json:"stationNumber,omitempty"`
	City             *string  `json:"city,omitempty"`
	Address          *string  `json:"address,omitempty"`
	Phone            *string  `json:"phone,omitempty"`
	FuelTypes        []string `json:"fuelTypes,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	PassportImageURL *string  `json:"passportImageUrl,omitempty"`
	LicenseImageURL  *string  `json:"licenseImageUrl,omitempty"`
}

// VerificationDecisionRequest is an administrator's verification decision.
type VerificationDecisionRequest struct {
	Status string `json:"status"`
}
