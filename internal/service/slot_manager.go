package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"parking-slot-service/internal/model"
	"parking-slot-service/internal/store"
)

// ErrSlotNotFound is returned when an operation addresses an unknown slot ID.
var ErrSlotNotFound = errors.New("slot not found")

// Notifier is told about slots that have just become available.
// Dispatch must return without waiting for delivery.
type Notifier interface {
	Dispatch(ctx context.Context, slotID int64) error
}

// SlotManager implements the slot operations on top of a SlotStore.
// It holds no state of its own.
type SlotManager struct {
	store    store.SlotStore
	notifier Notifier
}

// NewSlotManager creates a manager. notifier may be nil.
func NewSlotManager(s store.SlotStore, notifier Notifier) *SlotManager {
	return &SlotManager{store: s, notifier: notifier}
}

// AddSlot persists a new slot and returns it with its assigned ID.
func (m *SlotManager) AddSlot(ctx context.Context, in SlotInput) (SlotDTO, error) {
	slot := &model.ParkingSlot{
		Type:       in.Type,
		IsOccupied: in.IsOccupied,
		Location:   in.Location,
	}
	saved, err := m.store.Save(ctx, slot)
	if err != nil {
		return SlotDTO{}, err
	}
	return toDTO(saved), nil
}

// UpdateSlot replaces type, occupancy and location of an existing slot.
// The slot keeps its ID.
func (m *SlotManager) UpdateSlot(ctx context.Context, id int64, in SlotInput) (SlotDTO, error) {
	slot, err := m.find(ctx, id)
	if err != nil {
		return SlotDTO{}, err
	}
	wasOccupied := slot.IsOccupied

	slot.Type = in.Type
	slot.IsOccupied = in.IsOccupied
	slot.Location = in.Location

	saved, err := m.store.Save(ctx, slot)
	if err != nil {
		return SlotDTO{}, err
	}
	m.notifyIfFreed(ctx, wasOccupied, saved)
	return toDTO(saved), nil
}

// RemoveSlot deletes the slot. Unknown IDs are silently ignored.
func (m *SlotManager) RemoveSlot(ctx context.Context, id int64) error {
	return m.store.DeleteByID(ctx, id)
}

// GetAllSlots returns every slot ordered by ID.
func (m *SlotManager) GetAllSlots(ctx context.Context) ([]SlotDTO, error) {
	slots, err := m.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(slots), nil
}

// GetAvailableSlots returns the unoccupied slots.
func (m *SlotManager) GetAvailableSlots(ctx context.Context) ([]SlotDTO, error) {
	slots, err := m.store.FindByOccupied(ctx, false)
	if err != nil {
		return nil, err
	}
	return toDTOs(slots), nil
}

// GetOccupancyStatus counts occupied and available slots.
func (m *SlotManager) GetOccupancyStatus(ctx context.Context) (OccupancyStatus, error) {
	occupied, err := m.store.CountByOccupied(ctx, true)
	if err != nil {
		return OccupancyStatus{}, err
	}
	available, err := m.store.CountByOccupied(ctx, false)
	if err != nil {
		return OccupancyStatus{}, err
	}
	return OccupancyStatus{OccupiedCount: occupied, AvailableCount: available}, nil
}

// GetSlotsByType matches the type case-insensitively.
func (m *SlotManager) GetSlotsByType(ctx context.Context, slotType string) ([]SlotDTO, error) {
	slots, err := m.store.FindByTypeIgnoreCase(ctx, slotType)
	if err != nil {
		return nil, err
	}
	return toDTOs(slots), nil
}

// GetSlotByID returns ErrSlotNotFound for unknown IDs.
func (m *SlotManager) GetSlotByID(ctx context.Context, id int64) (SlotDTO, error) {
	slot, err := m.find(ctx, id)
	if err != nil {
		return SlotDTO{}, err
	}
	return toDTO(slot), nil
}

// ChangeOccupancyStatus sets only the occupancy flag of a slot.
func (m *SlotManager) ChangeOccupancyStatus(ctx context.Context, id int64, occupied bool) (SlotDTO, error) {
	slot, err := m.find(ctx, id)
	if err != nil {
		return SlotDTO{}, err
	}
	wasOccupied := slot.IsOccupied
	slot.IsOccupied = occupied

	saved, err := m.store.Save(ctx, slot)
	if err != nil {
		return SlotDTO{}, err
	}
	m.notifyIfFreed(ctx, wasOccupied, saved)
	return toDTO(saved), nil
}

func (m *SlotManager) find(ctx context.Context, id int64) (*model.ParkingSlot, error) {
	slot, err := m.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrSlotNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// notifyIfFreed never fails the caller; delivery problems are only logged.
func (m *SlotManager) notifyIfFreed(ctx context.Context, wasOccupied bool, slot *model.ParkingSlot) {
	if m.notifier == nil || !wasOccupied || slot.IsOccupied {
		return
	}
	if err := m.notifier.Dispatch(ctx, slot.ID); err != nil {
		log.Printf("Failed to dispatch availability notification for slot %d: %v", slot.ID, err)
	}
}
