package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambhavthakkar/PulseDrive/auth"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
)

func newHTTPStore(t *testing.T, url string) *HTTPStore {
	t.Helper()
	s, err := NewHTTPStore(HTTPConfig{BaseURL: url})
	require.NoError(t, err)
	return s
}

func TestHTTPStore_ListBareList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service-centres", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"1","booking_id":"BK-1","vehicle_id":"V1","owner":"Ravi","slot_id":"SC001-SLOT-3","centre_name":"North","slot_datetime":"2025-01-01T11:00:00","estimated_cost":1200},
			{"id":"2","booking_id":"BK-2","vehicle_id":"V2","owner":{"name":"Meera"},"slot_id":"SC002-SLOT-4","center_name":"South","slot_time":"2025-01-01T12:00:00Z","status":"canceled"},
			{"id":"3","slot_id":"SC001-SLOT-9","owner":42},
			{"id":"4"}
		]`)
	}))
	defer srv.Close()

	out, err := newHTTPStore(t, srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Ravi", out[0].Owner.Name)
	assert.Equal(t, "North", out[0].CenterName)
	assert.Equal(t, "SC001", out[0].CenterID)
	assert.Equal(t, "1200", out[0].EstimatedCost)
	assert.Equal(t, "1", out[0].StoreRef)
	assert.Equal(t, 11, out[0].SlotTime.Hour())
	assert.True(t, out[0].Active())

	assert.Equal(t, "Meera", out[1].Owner.Name)
	assert.Equal(t, "South", out[1].CenterName)
	assert.Equal(t, model.StatusCancelled, out[1].Status)

	assert.Equal(t, "SC001-SLOT-9", out[2].SlotID)
	assert.True(t, out[2].Active())
}

func TestHTTPStore_ListEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"bookings":[{"booking_id":"BK-1","slot_id":"SC001-SLOT-1"}]}`)
	}))
	defer srv.Close()

	out, err := newHTTPStore(t, srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "BK-1", out[0].BookingID)
}

func TestHTTPStore_ListErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	_, err := newHTTPStore(t, srv.URL).List(context.Background())
	assert.Error(t, err)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `"oops"`)
	}))
	defer bad.Close()
	_, err = newHTTPStore(t, bad.URL).List(context.Background())
	assert.Error(t, err)
}

func TestHTTPStore_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	s, err := NewHTTPStore(HTTPConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	_, err = s.List(context.Background())
	assert.Error(t, err)
}

func TestHTTPStore_CreateAndRemove(t *testing.T) {
	var (
		mu      sync.Mutex
		created map[string]any
		deleted string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&created)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"17"}`)
		case http.MethodGet:
			_, _ = io.WriteString(w, `[{"id":"17","booking_id":"BK-1","slot_id":"SC001-SLOT-1"}]`)
		case http.MethodDelete:
			deleted = strings.TrimPrefix(r.URL.Path, "/service-centres/")
			if deleted != "17" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, `{}`)
		}
	}))
	defer srv.Close()

	s := newHTTPStore(t, srv.URL)
	ctx := context.Background()
	r := reservation("BK-1", "SC001-SLOT-1")
	r.EstimatedCost = "₹1,200"

	got, err := s.Create(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "17", got.StoreRef)
	assert.Equal(t, "BK-1", got.BookingID)

	mu.Lock()
	assert.Equal(t, "SC001-SLOT-1", created["slot_id"])
	assert.Equal(t, "₹1,200", created["estimated_cost"])
	assert.Equal(t, "2025-01-01T10:00:00Z", created["slot_datetime"])
	mu.Unlock()

	// without a store reference the record is looked up by booking id
	require.NoError(t, s.Remove(ctx, model.Reservation{BookingID: "BK-1"}))
	mu.Lock()
	assert.Equal(t, "17", deleted)
	mu.Unlock()

	err = s.Remove(ctx, model.Reservation{BookingID: "BK-9", StoreRef: "99"})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	err = s.Remove(ctx, model.Reservation{BookingID: "BK-9"})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestHTTPStore_CreateConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()
	_, err := newHTTPStore(t, srv.URL).Create(context.Background(), reservation("BK-1", "SC001-SLOT-1"))
	assert.True(t, errors.Is(err, ledger.ErrSlotUnavailable))
}

func TestHTTPStore_BearerToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"abc","token_type":"bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer api.Close()

	s, err := NewHTTPStore(HTTPConfig{
		BaseURL: api.URL,
		Auth:    auth.Conf{ClientID: "id", ClientSecret: "secret", AuthURL: tokenSrv.URL},
	})
	require.NoError(t, err)
	out, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}
