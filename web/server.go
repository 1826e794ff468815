package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mileage/auth"
	"mileage/service"
)

type ServiceConfig struct {
	IsDev bool
	Port  string
}

// NewEngine wires every route. gatherer serves /metrics.
func NewEngine(cfg ServiceConfig, svc *service.Service, verifier *auth.Verifier, gatherer prometheus.Gatherer) *gin.Engine {
	if !cfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	setupMiddlewares(r, cfg.IsDev)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	h := &handler{svc: svc}
	authed := AuthMiddleware(verifier)
	r.GET("/ws", authed, h.liveState)

	api := r.Group("/api/v1", authed)
	{
		api.GET("/vehicles", h.listVehicles)
		api.POST("/vehicles", h.createVehicle)
		api.PUT("/vehicles/:id", h.updateVehicle)
		api.DELETE("/vehicles/:id", h.deleteVehicle)

		api.GET("/trips", h.listTrips)
		api.GET("/trips/:id", h.getTrip)
		api.POST("/trips/calculate", h.calculateTrip)
		api.POST("/trips", h.saveTrip)
		api.DELETE("/trips/:id", h.deleteTrip)

		api.GET("/currencies", h.listCurrencies)
		api.GET("/currencies/default", h.defaultCurrency)
		api.POST("/currencies", h.createCurrency)
		api.PUT("/currencies/:id", h.updateCurrency)
		api.DELETE("/currencies/:id", h.deleteCurrency)
		api.POST("/currencies/:id/default", h.setDefaultCurrency)

		api.GET("/fuel-prices", h.listFuelPrices)
		api.GET("/fuel-prices/latest/:fuelType", h.latestFuelPrice)
		api.POST("/fuel-prices", h.addFuelPrice)
		api.PUT("/fuel-prices/:id", h.updateFuelPrice)
		api.DELETE("/fuel-prices/:id", h.deleteFuelPrice)

		api.POST("/backup", h.backup)
		api.POST("/restore", h.restore)
		api.DELETE("/data", h.clearData)

		api.GET("/fuel-types", h.listFuelTypes)
	}
	return r
}

func NewHTTPServer(cfg ServiceConfig, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
