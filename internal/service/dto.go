package service

import "parking-slot-service/internal/model"

// SlotDTO is the external representation of a parking slot.
type SlotDTO struct {
	SlotID     int64  `json:"slotId"`
	Type       string `json:"type"`
	IsOccupied bool   `json:"isOccupied"`
	Location   string `json:"location"`
}

// SlotInput carries the caller-supplied fields for creating or replacing a slot.
type SlotInput struct {
	Type       string
	IsOccupied bool
	Location   string
}

// OccupancyStatus aggregates occupied and available slot counts.
type OccupancyStatus struct {
	OccupiedCount  int64 `json:"occupiedCount"`
	AvailableCount int64 `json:"availableCount"`
}

// toDTO is the single mapping from the persisted record to its external shape.
func toDTO(slot *model.ParkingSlot) SlotDTO {
	return SlotDTO{
		SlotID:     slot.ID,
		Type:       slot.Type,
		IsOccupied: slot.IsOccupied,
		Location:   slot.Location,
	}
}

func toDTOs(slots []model.ParkingSlot) []SlotDTO {
	out := make([]SlotDTO, 0, len(slots))
	for i := range slots {
		out = append(out, toDTO(&slots[i]))
	}
	return out
}
