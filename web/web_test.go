package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mileage/auth"
	dbt "mileage/db/db"
	"mileage/db/mem"
	"mileage/metrics"
	"mileage/mileage"
	"mileage/mq/goch"
	"mileage/repository"
	"mileage/service"
	"mileage/session"
)

const testSecret = "test-secret"

func setupTest(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bus := goch.NewGoChanChangeMessageQueue(goch.DefaultBufferSize)
	t.Cleanup(bus.Close)
	reg := prometheus.NewRegistry()
	repo := repository.New(mem.NewInMemoryDBWrapper(), bus, nil, metrics.New(reg))
	verifier := auth.NewVerifier(testSecret)
	engine := NewEngine(ServiceConfig{IsDev: true}, service.New(repo), verifier, reg)

	token, err := verifier.Issue(auth.Identity{ID: "u1", Email: "driver@example.com"}, time.Hour)
	require.NoError(t, err)
	return engine, token
}

func do(t *testing.T, engine *gin.Engine, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func readings(start, end, fuel float64) mileage.Readings {
	return mileage.Readings{StartMileage: &start, EndMileage: &end, FuelFilled: &fuel}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	engine, _ := setupTest(t)
	w := do(t, engine, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	engine, _ := setupTest(t)

	w := do(t, engine, "", http.MethodGet, "/api/v1/vehicles", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, engine, "garbage", http.MethodGet, "/api/v1/vehicles", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVehicleAndTripFlow(t *testing.T) {
	engine, token := setupTest(t)

	// Test 1: invalid vehicle is a field error
	w := do(t, engine, token, http.MethodPost, "/api/v1/vehicles", dbt.Vehicle{Name: "C"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decode[map[string]string](t, w)["field"])

	// Test 2: create and list
	w = do(t, engine, token, http.MethodPost, "/api/v1/vehicles", dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol})
	require.Equal(t, http.StatusCreated, w.Code)
	civic := decode[dbt.Vehicle](t, w)
	require.NotEmpty(t, civic.ID)

	w = do(t, engine, token, http.MethodGet, "/api/v1/vehicles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dbt.Vehicle](t, w), 1)

	// Test 3: calculate
	form := service.TripForm{
		VehicleID: civic.ID,
		Readings:  readings(1000, 1350, 25),
	}
	w = do(t, engine, token, http.MethodPost, "/api/v1/trips/calculate", form)
	require.Equal(t, http.StatusOK, w.Code)
	calc := decode[map[string]any](t, w)
	assert.Equal(t, 350.0, calc["tripDistance"])
	assert.Equal(t, 14.0, calc["fuelEfficiency"])

	// Test 4: save and read back
	w = do(t, engine, token, http.MethodPost, "/api/v1/trips", form)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[service.SaveResult](t, w)
	assert.True(t, saved.Completed)
	assert.Equal(t, service.MessageSaved, saved.Message)

	w = do(t, engine, token, http.MethodGet, "/api/v1/trips/"+saved.Trip.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dbt.TripStatusCompleted, decode[dbt.Trip](t, w).Status)

	// Test 5: vehicle with trips cannot be deleted
	w = do(t, engine, token, http.MethodDelete, "/api/v1/vehicles/"+civic.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["deleted"])

	// Test 6: after the trip is gone it can
	w = do(t, engine, token, http.MethodDelete, "/api/v1/trips/"+saved.Trip.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, engine, token, http.MethodDelete, "/api/v1/vehicles/"+civic.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Test 7: unknown trip
	w = do(t, engine, token, http.MethodGet, "/api/v1/trips/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrenciesAndFuelPrices(t *testing.T) {
	engine, token := setupTest(t)

	w := do(t, engine, token, http.MethodGet, "/api/v1/currencies/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usd", decode[dbt.Currency](t, w).ID)

	w = do(t, engine, token, http.MethodPost, "/api/v1/currencies/eur/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "eur", decode[dbt.Currency](t, w).ID)

	w = do(t, engine, token, http.MethodPost, "/api/v1/currencies/nope/default", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, engine, token, http.MethodGet, "/api/v1/fuel-prices/latest/PETROL", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, engine, token, http.MethodPost, "/api/v1/fuel-prices", dbt.FuelPrice{FuelType: dbt.FuelTypePetrol, PricePerUnit: 2, CurrencyID: "eur"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, token, http.MethodGet, "/api/v1/fuel-prices/latest/PETROL?currency=eur", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode[dbt.FuelPrice](t, w).PricePerUnit)

	w = do(t, engine, token, http.MethodGet, "/api/v1/fuel-prices/latest/petrol", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFuelTypes(t *testing.T) {
	engine, token := setupTest(t)
	w := do(t, engine, token, http.MethodGet, "/api/v1/fuel-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []fuelTypeInfo{
		{ID: dbt.FuelTypePetrol, Name: "Petrol", Unit: "Ltr"},
		{ID: dbt.FuelTypeDiesel, Name: "Diesel", Unit: "Ltr"},
		{ID: dbt.FuelTypeCNG, Name: "CNG", Unit: "KG"},
	}, decode[[]fuelTypeInfo](t, w))
}

func TestDeleteWithTripsAndClearData(t *testing.T) {
	engine, token := setupTest(t)

	addWithTrip := func(name string) dbt.Vehicle {
		w := do(t, engine, token, http.MethodPost, "/api/v1/vehicles", dbt.Vehicle{Name: name, FuelType: dbt.FuelTypeDiesel})
		require.Equal(t, http.StatusCreated, w.Code)
		v := decode[dbt.Vehicle](t, w)
		w = do(t, engine, token, http.MethodPost, "/api/v1/trips", service.TripForm{VehicleID: v.ID, Readings: readings(10, 20, 1)})
		require.Equal(t, http.StatusOK, w.Code)
		return v
	}
	golf := addWithTrip("Golf")
	addWithTrip("Polo")

	// Test 1: withTrips removes the vehicle and its trips only
	w := do(t, engine, token, http.MethodDelete, "/api/v1/vehicles/"+golf.ID+"?withTrips=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["deleted"])
	w = do(t, engine, token, http.MethodGet, "/api/v1/trips", nil)
	assert.Len(t, decode[[]dbt.Trip](t, w), 1)

	w = do(t, engine, token, http.MethodDelete, "/api/v1/vehicles/"+golf.ID+"?withTrips=true", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test 2: clearing removes everything of the user
	w = do(t, engine, token, http.MethodDelete, "/api/v1/data", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, engine, token, http.MethodGet, "/api/v1/vehicles", nil)
	assert.Empty(t, decode[[]dbt.Vehicle](t, w))
	w = do(t, engine, token, http.MethodGet, "/api/v1/trips", nil)
	assert.Empty(t, decode[[]dbt.Trip](t, w))
}

func TestBackupDisabled(t *testing.T) {
	engine, token := setupTest(t)
	w := do(t, engine, token, http.MethodPost, "/api/v1/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["success"])

	w = do(t, engine, token, http.MethodPost, "/api/v1/restore?replace=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["success"])
}

func TestMetricsEndpoint(t *testing.T) {
	engine, token := setupTest(t)
	w := do(t, engine, token, http.MethodPost, "/api/v1/vehicles", dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol})
	require.Equal(t, http.StatusCreated, w.Code)
	civic := decode[dbt.Vehicle](t, w)
	w = do(t, engine, token, http.MethodPost, "/api/v1/trips", service.TripForm{VehicleID: civic.ID, Readings: readings(1000, 1350, 25)})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `mileage_trips_saved_total{status="COMPLETED"} 1`)
}

func TestLiveState(t *testing.T) {
	engine, token := setupTest(t)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	w := do(t, engine, token, http.MethodPost, "/api/v1/vehicles", dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var s session.State
		require.NoError(t, conn.ReadJSON(&s))
		if len(s.Vehicles) == 1 && len(s.Currencies) > 0 {
			assert.Equal(t, "u1", s.User.ID)
			assert.Equal(t, "Civic", s.Vehicles[0].Name)
			return
		}
	}
}
