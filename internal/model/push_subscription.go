package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Places []SubscriptionPlace `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionPlace maps a subscription to a place it wants "free" notifications for.
type SubscriptionPlace struct {
	Endpoint string `gorm:"primaryKey"`
	PlaceID  int    `gorm:"primaryKey;index"`
}
