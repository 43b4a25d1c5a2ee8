package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-slot-service/internal/model"
)

// SubscriptionStore persists browser push subscriptions and the slots they watch.
type SubscriptionStore interface {
	// ReplaceSubscription upserts the subscription and replaces its watched slots.
	// Unknown slot IDs are ignored.
	ReplaceSubscription(ctx context.Context, sub *model.PushSubscription, slotIDs []int64) error
	// SubscribedSlotIDs returns ErrNotFound for unknown endpoints.
	SubscribedSlotIDs(ctx context.Context, endpoint string) ([]int64, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

func (s *gormStore) ReplaceSubscription(ctx context.Context, sub *model.PushSubscription, slotIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		slots := make([]*model.ParkingSlot, 0, len(slotIDs))
		if len(slotIDs) > 0 {
			if err := tx.Find(&slots, slotIDs).Error; err != nil {
				return fmt.Errorf("failed to load subscribed slots: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Slots").Replace(slots); err != nil {
			return fmt.Errorf("failed to replace subscribed slots: %w", err)
		}
		return nil
	})
}

func (s *gormStore) SubscribedSlotIDs(ctx context.Context, endpoint string) ([]int64, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Slots").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("subscription %q: %w", endpoint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}

	ids := make([]int64, len(sub.Slots))
	for i, slot := range sub.Slots {
		ids[i] = slot.ID
	}
	return ids, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Slots").Clear(); err != nil {
			return fmt.Errorf("failed to unlink subscription slots: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}
