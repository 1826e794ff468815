package backup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func fakeDrive(t *testing.T, files map[string]string) *DriveStore {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, driveAppDataFolder, r.URL.Query().Get("spaces"))
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query().Get("q")
		for id := range files {
			if q == driveNameQuery(id) {
				w.Write([]byte(`{"files":[{"id":"` + id + `","name":"` + id + `"}]}`))
				return
			}
		}
		w.Write([]byte(`{"files":[]}`))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/files/"):]
		body, ok := files[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return newDriveStore(func(ctx context.Context, account string) (*drive.Service, error) {
		return drive.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	})
}

func TestDriveStore_Load(t *testing.T) {
	store := fakeDrive(t, map[string]string{VehiclesDocument: `[{"id":"v1","name":"Civic"}]`})
	b := New(store)

	vehicles, err := b.LoadVehicles(context.Background(), "a@b.c")
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "Civic", vehicles[0].Name)

	trips, err := b.LoadTrips(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestDriveStore_ServiceCachedPerAccount(t *testing.T) {
	calls := 0
	store := newDriveStore(func(ctx context.Context, account string) (*drive.Service, error) {
		calls++
		return drive.NewService(ctx, option.WithEndpoint("http://127.0.0.1/"), option.WithHTTPClient(http.DefaultClient))
	})
	ctx := context.Background()
	_, err := store.service(ctx, "a@b.c")
	require.NoError(t, err)
	_, err = store.service(ctx, "a@b.c")
	require.NoError(t, err)
	_, err = store.service(ctx, "d@e.f")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = store.service(ctx, "")
	assert.Error(t, err)
}

func TestDriveNameQuery(t *testing.T) {
	assert.Equal(t, `name='mymileage_app_trips.json'`, driveNameQuery(TripsDocument))
	assert.Equal(t, `name='it\'s'`, driveNameQuery("it's"))
}
