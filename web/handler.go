package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	dbt "mileage/db/db"
	"mileage/mileage"
	"mileage/service"
)

type handler struct {
	svc *service.Service
}

// respondError maps domain errors onto status codes.
func respondError(c *gin.Context, err error) {
	var fe *mileage.FieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, gin.H{"error": fe.Message, "field": fe.Field})
	case errors.Is(err, service.ErrNoUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, dbt.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dbt.ErrVehicleHasTrips):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logrus.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// ---- vehicles ----

func (h *handler) listVehicles(c *gin.Context) {
	vehicles, err := h.svc.Repository().ListVehicles(c.Request.Context(), identityFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *handler) createVehicle(c *gin.Context) {
	var v dbt.Vehicle
	if !bind(c, &v) {
		return
	}
	v.ID = ""
	if err := h.svc.SaveVehicle(c.Request.Context(), identityFrom(c), &v); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *handler) updateVehicle(c *gin.Context) {
	var v dbt.Vehicle
	if !bind(c, &v) {
		return
	}
	v.ID = c.Param("id")
	if err := h.svc.SaveVehicle(c.Request.Context(), identityFrom(c), &v); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// deleteVehicle refuses while trips reference the vehicle, unless
// withTrips=true asks for them to go too.
func (h *handler) deleteVehicle(c *gin.Context) {
	if c.Query("withTrips") == "true" {
		if err := h.svc.DeleteVehicleWithTrips(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}
	ok, err := h.svc.DeleteVehicle(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"deleted": false, "error": "vehicle has trips"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ---- trips ----

func (h *handler) listTrips(c *gin.Context) {
	trips, err := h.svc.Repository().ListTrips(c.Request.Context(), identityFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (h *handler) getTrip(c *gin.Context) {
	trip, err := h.svc.Repository().GetTrip(c.Request.Context(), c.Param("id"), identityFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *handler) calculateTrip(c *gin.Context) {
	var form service.TripForm
	if !bind(c, &form) {
		return
	}
	res, err := h.svc.Calculate(c.Request.Context(), identityFrom(c), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) saveTrip(c *gin.Context) {
	var form service.TripForm
	if !bind(c, &form) {
		return
	}
	res, err := h.svc.Save(c.Request.Context(), identityFrom(c), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) deleteTrip(c *gin.Context) {
	if err := h.svc.DeleteTrip(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- currencies ----

func (h *handler) listCurrencies(c *gin.Context) {
	currencies, err := h.svc.Repository().ListCurrencies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currencies)
}

func (h *handler) defaultCurrency(c *gin.Context) {
	currency, err := h.svc.Repository().GetDefaultCurrency(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if currency == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no default currency"})
		return
	}
	c.JSON(http.StatusOK, currency)
}

func (h *handler) createCurrency(c *gin.Context) {
	var currency dbt.Currency
	if !bind(c, &currency) {
		return
	}
	if err := h.svc.Repository().AddCurrency(c.Request.Context(), &currency); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, currency)
}

func (h *handler) updateCurrency(c *gin.Context) {
	var currency dbt.Currency
	if !bind(c, &currency) {
		return
	}
	currency.ID = c.Param("id")
	if err := h.svc.Repository().UpdateCurrency(c.Request.Context(), &currency); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currency)
}

func (h *handler) deleteCurrency(c *gin.Context) {
	if err := h.svc.Repository().DeleteCurrency(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) setDefaultCurrency(c *gin.Context) {
	if err := h.svc.Repository().SetDefaultCurrency(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.defaultCurrency(c)
}

// ---- fuel prices ----

func (h *handler) listFuelPrices(c *gin.Context) {
	prices, err := h.svc.Repository().ListActiveFuelPrices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (h *handler) latestFuelPrice(c *gin.Context) {
	fuelType, err := dbt.ParseFuelType(c.Param("fuelType"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	repo := h.svc.Repository()
	var price *dbt.FuelPrice
	if currency := c.Query("currency"); currency != "" {
		price, err = repo.GetLatestFuelPriceByCurrency(c.Request.Context(), fuelType, currency)
	} else {
		price, err = repo.GetLatestFuelPrice(c.Request.Context(), fuelType)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if price == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active price"})
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *handler) addFuelPrice(c *gin.Context) {
	var price dbt.FuelPrice
	if !bind(c, &price) {
		return
	}
	if !price.FuelType.Valid() || price.PricePerUnit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fuel type and a positive price are required"})
		return
	}
	price.ID = ""
	if err := h.svc.Repository().AddFuelPrice(c.Request.Context(), &price); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, price)
}

func (h *handler) updateFuelPrice(c *gin.Context) {
	var price dbt.FuelPrice
	if !bind(c, &price) {
		return
	}
	price.ID = c.Param("id")
	if err := h.svc.Repository().UpdateFuelPrice(c.Request.Context(), &price); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *handler) deleteFuelPrice(c *gin.Context) {
	if err := h.svc.Repository().DeleteFuelPrice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- backup ----

func (h *handler) backup(c *gin.Context) {
	ok, msg := h.svc.ManualBackup(c.Request.Context(), identityFrom(c))
	c.JSON(http.StatusOK, gin.H{"success": ok, "message": msg})
}

func (h *handler) restore(c *gin.Context) {
	ok, msg := h.svc.Restore(c.Request.Context(), identityFrom(c), c.Query("replace") == "true")
	c.JSON(http.StatusOK, gin.H{"success": ok, "message": msg})
}

func (h *handler) clearData(c *gin.Context) {
	if err := h.svc.ClearData(c.Request.Context(), identityFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type fuelTypeInfo struct {
	ID   dbt.FuelType `json:"id"`
	Name string       `json:"name"`
	Unit string       `json:"unit"`
}

func (h *handler) listFuelTypes(c *gin.Context) {
	types := make([]fuelTypeInfo, 0, len(dbt.FuelTypes))
	for _, f := range dbt.FuelTypes {
		types = append(types, fuelTypeInfo{ID: f, Name: f.DisplayName(), Unit: f.Unit()})
	}
	c.JSON(http.StatusOK, types)
}
