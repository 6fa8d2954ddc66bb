package model

import "time"

// TripRecord is one completed and billed session. Rows are never updated.
type TripRecord struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	PlaceID         int       `gorm:"not null;index" json:"place_id"`
	DurationMinutes int64     `gorm:"not null" json:"duration_minutes"`
	BilledUnits     int64     `gorm:"not null" json:"billed_units"`
	Cost            int       `gorm:"not null" json:"cost"`
	BalanceAfter    int       `gorm:"not null" json:"balance_after"`
	Policy          string    `gorm:"size:32;not null" json:"policy"`
	EndedAt         time.Time `gorm:"not null" json:"ended_at"`
}
