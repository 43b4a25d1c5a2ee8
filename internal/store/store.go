package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"parking-slot-service/internal/model"
)

// ErrNotFound is returned when a lookup addresses a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	SlotStore
	SubscriptionStore

	// Ping checks that the underlying database answers.
	Ping(ctx context.Context) error
}

// SlotStore is the durable keyed collection of parking slots.
type SlotStore interface {
	// Save inserts the slot when it has no ID yet, otherwise overwrites the
	// stored record. The returned slot carries the assigned ID.
	Save(ctx context.Context, slot *model.ParkingSlot) (*model.ParkingSlot, error)
	FindByID(ctx context.Context, id int64) (*model.ParkingSlot, error)
	FindAll(ctx context.Context) ([]model.ParkingSlot, error)
	FindByOccupied(ctx context.Context, occupied bool) ([]model.ParkingSlot, error)
	CountByOccupied(ctx context.Context, occupied bool) (int64, error)
	FindByTypeIgnoreCase(ctx context.Context, slotType string) ([]model.ParkingSlot, error)
	// DeleteByID is a no-op for unknown IDs.
	DeleteByID(ctx context.Context, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

var _ Store = (*gormStore)(nil)

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Save(ctx context.Context, slot *model.ParkingSlot) (*model.ParkingSlot, error) {
	if err := s.db.WithContext(ctx).Save(slot).Error; err != nil {
		return nil, fmt.Errorf("failed to save parking slot %d: %w", slot.ID, err)
	}
	return slot, nil
}

func (s *gormStore) FindByID(ctx context.Context, id int64) (*model.ParkingSlot, error) {
	var slot model.ParkingSlot
	err := s.db.WithContext(ctx).First(&slot, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("parking slot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parking slot %d: %w", id, err)
	}
	return &slot, nil
}

func (s *gormStore) FindAll(ctx context.Context) ([]model.ParkingSlot, error) {
	var slots []model.ParkingSlot
	if err := s.db.WithContext(ctx).Order("id").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list parking slots: %w", err)
	}
	return slots, nil
}

func (s *gormStore) FindByOccupied(ctx context.Context, occupied bool) ([]model.ParkingSlot, error) {
	var slots []model.ParkingSlot
	if err := s.db.WithContext(ctx).
		Where("is_occupied = ?", occupied).
		Order("id").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list parking slots with occupied=%t: %w", occupied, err)
	}
	return slots, nil
}

func (s *gormStore) CountByOccupied(ctx context.Context, occupied bool) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.ParkingSlot{}).
		Where("is_occupied = ?", occupied).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count parking slots with occupied=%t: %w", occupied, err)
	}
	return count, nil
}

func (s *gormStore) FindByTypeIgnoreCase(ctx context.Context, slotType string) ([]model.ParkingSlot, error) {
	var slots []model.ParkingSlot
	if err := s.db.WithContext(ctx).
		Where("LOWER(type) = LOWER(?)", slotType).
		Order("id").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list parking slots of type %q: %w", slotType, err)
	}
	return slots, nil
}

func (s *gormStore) DeleteByID(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Drop subscriber links first so foreign keys never block the delete.
		if err := tx.Exec("DELETE FROM subscription_slot_mapping WHERE parking_slot_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink subscriptions from parking slot %d: %w", id, err)
		}
		if err := tx.Delete(&model.ParkingSlot{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete parking slot %d: %w", id, err)
		}
		return nil
	})
}
