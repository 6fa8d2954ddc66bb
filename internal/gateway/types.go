package gateway

import "parking-session-backend/internal/model"

// placesResponse models GET /places.
type placesResponse struct {
	Places []model.Place `json:"places"`
}

// updateRequest models the POST /update body.
type updateRequest struct {
	ID     int               `json:"id"`
	Status model.PlaceStatus `json:"status"`
}
