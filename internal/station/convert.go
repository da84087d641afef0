package station

import "github.com/mahatati/mahatati/internal/api/models"

// toAPIStation converts a domain Station to an API Station.
func toAPIStation(s *Station) models.Station {
	out := models.Station{
		ID:                 s.ID,
		OwnerID:            s.OwnerID,
		Name:               s.Name,
		StationNumber:      s.StationNumber,
		City:               s.City,
		Address:            s.Address,
		Phone:              s.Phone,
		FuelTypes:          s.FuelTypes,
		IsActive:           s.IsActive,
		IsVerified:         s.IsVerified(),
		VerificationStatus: string(s.VerificationStatus),
		PassportImageURL:   s.PassportImageURL,
		LicenseImageURL:    s.LicenseImageURL,
		CreatedAt:          models.Timestamp(s.CreatedAt),
		UpdatedAt:          models.Timestamp(s.UpdatedAt),
	}

	if s.HasLocation() {
		out.Location = &models.Location{Lat: *s.Lat, Lng: *s.Lng}
		link := DirectionsURL(s)
		out.DirectionsURL = &link
	}

	return out
}

func toAPIStations(list []*Station) []models.Station {
	items := make([]models.Station, 0, len(list))
	for _, s := range list {
		items = append(items, toAPIStation(s))
	}
	return items
}

// toPublicStation is toAPIStation without the owner's identity documents.
func toPublicStation(s *Station) models.Station {
	out := toAPIStation(s)
	out.PassportImageURL = nil
	out.LicenseImageURL = nil
	return out
}

func toPublicStations(list []*Station) []models.Station {
	items := make([]models.Station, 0, len(list))
	for _, s := range list {
		items = append(items, toPublicStation(s))
	}
	return items
}

func toAPISummary(sum Summary) models.StationSummary {
	return models.StationSummary{
		Total:    sum.Total,
		Active:   sum.Active,
		Verified: sum.Verified,
		Pending:  sum.Pending,
		Rejected: sum.Rejected,
	}
}

// toAPIMap builds the map overlay for a result set.
func toAPIMap(list []*Station) models.StationMap {
	mappable := Mappable(list)

	out := models.StationMap{Markers: make([]models.MapMarker, 0, len(mappable))}
	for _, s := range mappable {
		out.Markers = append(out.Markers, models.MapMarker{
			StationID:     s.ID,
			Name:          s.Name,
			Location:      models.Location{Lat: *s.Lat, Lng: *s.Lng},
			DirectionsURL: DirectionsURL(s),
		})
	}

	if center, ok := Center(list); ok {
		out.Center = &models.Location{Lat: center.Lat, Lng: center.Lng}
	}

	return out
}
