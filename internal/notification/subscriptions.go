package notification

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-session-backend/internal/model"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscriptions stores push subscriptions and the places each one watches.
type Subscriptions struct {
	db *gorm.DB
}

func NewSubscriptions(db *gorm.DB) *Subscriptions {
	return &Subscriptions{db: db}
}

// Put creates or replaces a subscription together with its watched places.
func (s *Subscriptions) Put(ctx context.Context, sub model.PushSubscription, placeIDs []int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub.Places = nil
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscriptionPlace{}).Error; err != nil {
			return fmt.Errorf("failed to clear watched places: %w", err)
		}

		seen := make(map[int]bool, len(placeIDs))
		rows := make([]model.SubscriptionPlace, 0, len(placeIDs))
		for _, id := range placeIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, model.SubscriptionPlace{Endpoint: sub.Endpoint, PlaceID: id})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to store watched places: %w", err)
		}
		return nil
	})
}

// Places returns the place ids watched by endpoint in ascending order.
func (s *Subscriptions) Places(ctx context.Context, endpoint string) ([]int, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Preload("Places", func(db *gorm.DB) *gorm.DB { return db.Order("place_id") }).
		First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	ids := make([]int, len(sub.Places))
	for i, p := range sub.Places {
		ids[i] = p.PlaceID
	}
	return ids, nil
}

// Delete removes a subscription and its watched places.
func (s *Subscriptions) Delete(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscriptionPlace{}).Error; err != nil {
			return fmt.Errorf("failed to delete watched places: %w", err)
		}
		if err := tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// ForPlace returns the subscriptions watching placeID.
func (s *Subscriptions) ForPlace(ctx context.Context, placeID int) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_places sp ON sp.endpoint = push_subscriptions.endpoint").
		Where("sp.place_id = ?", placeID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for place %d: %w", placeID, err)
	}
	return subs, nil
}
