package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking-slot-service/internal/mw"
	"parking-slot-service/internal/service"
)

// slotRequest is the body of POST and PUT /api/slots. A slotId in the body is
// accepted but ignored; identity comes from the store or the path.
type slotRequest struct {
	SlotID     *int64 `json:"slotId"`
	Type       string `json:"type" binding:"required"`
	IsOccupied bool   `json:"isOccupied"`
	Location   string `json:"location" binding:"required"`
}

func (r slotRequest) input() service.SlotInput {
	return service.SlotInput{Type: r.Type, IsOccupied: r.IsOccupied, Location: r.Location}
}

// AddSlot handles POST /api/slots.
func (h *Handler) AddSlot(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	slot, err := h.slots.AddSlot(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// UpdateSlot handles PUT /api/slots/{slotId}.
func (h *Handler) UpdateSlot(c *gin.Context) {
	id, ok := slotIDParam(c)
	if !ok {
		return
	}
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	slot, err := h.slots.UpdateSlot(c.Request.Context(), id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// RemoveSlot handles DELETE /api/slots/{slotId}.
func (h *Handler) RemoveSlot(c *gin.Context) {
	id, ok := slotIDParam(c)
	if !ok {
		return
	}
	if err := h.slots.RemoveSlot(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAllSlots handles GET /api/slots.
func (h *Handler) GetAllSlots(c *gin.Context) {
	slots, err := h.slots.GetAllSlots(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GetAvailableSlots handles GET /api/slots/available.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	slots, err := h.slots.GetAvailableSlots(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GetOccupancyStatus handles GET /api/slots/occupancy-status.
func (h *Handler) GetOccupancyStatus(c *gin.Context) {
	status, err := h.slots.GetOccupancyStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetSlotsByType handles GET /api/slots/type/{type}.
func (h *Handler) GetSlotsByType(c *gin.Context) {
	slots, err := h.slots.GetSlotsByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GetSlotByID handles GET /api/slots/{slotId}.
func (h *Handler) GetSlotByID(c *gin.Context) {
	id, ok := slotIDParam(c)
	if !ok {
		return
	}
	slot, err := h.slots.GetSlotByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// ChangeOccupancyStatus handles PATCH /api/slots/{slotId}/occupancy?isOccupied={bool}.
func (h *Handler) ChangeOccupancyStatus(c *gin.Context) {
	id, ok := slotIDParam(c)
	if !ok {
		return
	}
	raw, present := c.GetQuery("isOccupied")
	if !present {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isOccupied is required"})
		return
	}
	occupied, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isOccupied must be a boolean"})
		return
	}

	slot, err := h.slots.ChangeOccupancyStatus(c.Request.Context(), id, occupied)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func slotIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("slotId"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSlotNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "slot not found"})
		return
	}
	log.Printf("request %s %s %s failed: %v", c.GetString(mw.RequestIDKey), c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
