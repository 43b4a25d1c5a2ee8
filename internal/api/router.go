package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-slot-service/config"
	"parking-slot-service/internal/mw"
	"parking-slot-service/internal/service"
	"parking-slot-service/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, slots *service.SlotManager, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()
	if cfg.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.RequestIPHeader
	}
	r.Use(mw.RequestID())

	handler := NewHandler(slots, s, webpushOptions)

	r.GET("/actuator/health", handler.Health)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst))
	{
		slotRoutes := api.Group("/slots")
		if cfg.CacheTTL > 0 {
			slotRoutes.Use(mw.Cache(cache.New(cfg.CacheTTL, 2*cfg.CacheTTL), cfg.CacheTTL))
		}
		slotRoutes.POST("", handler.AddSlot)
		slotRoutes.GET("", handler.GetAllSlots)
		slotRoutes.GET("/available", handler.GetAvailableSlots)
		slotRoutes.GET("/occupancy-status", handler.GetOccupancyStatus)
		slotRoutes.GET("/type/:type", handler.GetSlotsByType)
		slotRoutes.GET("/:slotId", handler.GetSlotByID)
		slotRoutes.PUT("/:slotId", handler.UpdateSlot)
		slotRoutes.DELETE("/:slotId", handler.RemoveSlot)
		slotRoutes.PATCH("/:slotId/occupancy", handler.ChangeOccupancyStatus)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
