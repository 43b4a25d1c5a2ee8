package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"parking-slot-service/internal/service"
	"parking-slot-service/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	slots   *service.SlotManager
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(slots *service.SlotManager, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		slots:   slots,
		store:   s,
		webpush: webpushOptions,
	}
}
