package dto

import "time"

type AvailabilityResult struct {
	ListingID string    `json:"listing_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	FreeUnits int       `json:"free_units"`
}
