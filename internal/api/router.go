package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-session-backend/config"
	"parking-session-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(mw.Recovery(h.log), mw.RequestLogger(h.log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, mw.ClientKey(cfg.RequestIPHeader))

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		api.GET("/places", h.GetPlaces)
		api.POST("/places/refresh", h.RefreshPlaces)
		api.GET("/stats", caching, h.GetStats)

		api.GET("/status", h.GetStatus)
		api.POST("/session/enter", h.Enter)
		api.POST("/session/exit", h.Exit)

		api.POST("/account/login", h.Login)
		api.POST("/account/topup", h.TopUp)
		api.POST("/account/logout", h.Logout)

		api.GET("/trips", h.GetTrips)
		api.DELETE("/trips", h.DeleteTrips)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetPushKey)
	}

	return r
}
