package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bookingservice "reserva/internal/booking/service"
	"reserva/internal/slots/repository"
	"reserva/internal/slots/service"
	"reserva/internal/slots/validator"
	"reserva/pkg/clock"
	"reserva/pkg/config"
	"reserva/pkg/logger"
	"reserva/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*httprouter.Router, service.ReservationCoordinator) {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:                log,
		DefaultLockTTL:     15 * time.Minute,
		MaxLockTTL:         24 * time.Hour,
		StoreRetryAttempts: 3,
		StoreRetryBackoff:  time.Millisecond,
	}

	store := repository.NewMemorySlotStore()
	clk := clock.NewFake(time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC))
	coordinator := service.NewReservationCoordinator(store, clk, nil, cfg)
	confirmer := bookingservice.NewBookingConfirmer(coordinator, cfg)

	router := httprouter.New()
	NewSlotHandler(coordinator, confirmer, validator.NewSlotValidator(log), log).RegisterRoutes(router)
	return router, coordinator
}

func doJSON(t *testing.T, router *httprouter.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReserveEndpoint_ClaimsSlot(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/slots/reserve", model.ReserveRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response struct {
		Data model.LockHandle `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "R1", response.Data.ResourceID)
	assert.NotEmpty(t, response.Data.LockToken)
}

func TestReserveEndpoint_RejectsMalformedDate(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/slots/reserve", model.ReserveRequest{
		ResourceID: "R1",
		Date:       "25/12/2025",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReserveEndpoint_ContendedSlotConflicts(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25"})
	require.NoError(t, err)
	_, err = coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/slots/reserve", model.ReserveRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmEndpoint_StaleLockIsPreconditionFailed(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/slots/confirm", model.ConfirmRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
		LockToken:  "tok-aaaaaaaa",
		BookingRef: "bkg-1",
	})
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestReserveConfirmRoundTrip(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25"})
	require.NoError(t, err)

	reserveRec := doJSON(t, router, http.MethodPost, "/api/v1/slots/reserve", model.ReserveRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
	})
	require.Equal(t, http.StatusCreated, reserveRec.Code)

	var reserved struct {
		Data model.LockHandle `json:"data"`
	}
	require.NoError(t, json.Unmarshal(reserveRec.Body.Bytes(), &reserved))

	confirmRec := doJSON(t, router, http.MethodPost, "/api/v1/slots/confirm", model.ConfirmRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
		LockToken:  reserved.Data.LockToken,
		BookingRef: "bkg-1",
	})
	assert.Equal(t, http.StatusNoContent, confirmRec.Code)

	getRec := doJSON(t, router, http.MethodGet, "/api/v1/slots/calendar/R1/2025-12-25", nil)
	require.Equal(t, http.StatusOK, getRec.Code)

	var got struct {
		Data model.SlotRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	assert.Equal(t, model.StatusBooked, got.Data.Status)
	assert.Equal(t, "bkg-1", got.Data.BookingRef)
	assert.Empty(t, got.Data.LockToken, "lock tokens must not appear in read responses")
}

func TestTryBookEndpoint_BooksInOneCall(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings", model.TryBookRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
		BookingRef: "bkg-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response struct {
		Data model.SlotRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, model.StatusBooked, response.Data.Status)

	// Same reference again: idempotent.
	retry := doJSON(t, router, http.MethodPost, "/api/v1/bookings", model.TryBookRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
		BookingRef: "bkg-1",
	})
	assert.Equal(t, http.StatusCreated, retry.Code)

	// A different reference is turned away.
	other := doJSON(t, router, http.MethodPost, "/api/v1/bookings", model.TryBookRequest{
		ResourceID: "R1",
		Date:       "2025-12-25",
		BookingRef: "bkg-2",
	})
	assert.Equal(t, http.StatusConflict, other.Code)
}

func TestProvisionEndpoint_ReportsCreatedCount(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/slots", model.ProvisionRequest{
		ResourceID: "R1",
		Dates:      []string{"2025-12-25", "2025-12-26"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	again := doJSON(t, router, http.MethodPost, "/api/v1/slots", model.ProvisionRequest{
		ResourceID: "R1",
		Dates:      []string{"2025-12-25", "2025-12-27"},
	})
	require.Equal(t, http.StatusCreated, again.Code)

	var response struct {
		Data struct {
			Created int `json:"created"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Data.Created)
}

func TestCalendarEndpoint_Paginates(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25", "2025-12-26", "2025-12-27"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/slots/calendar/R1?limit=2&offset=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data       []model.SlotRecord `json:"data"`
		TotalCount int64              `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Data, 2)
	assert.Equal(t, int64(3), response.TotalCount)
}

func TestGetSlotEndpoint_HidesLockToken(t *testing.T) {
	router, coordinator := newTestRouter(t)
	_, err := coordinator.Provision(context.Background(), "R1", []string{"2025-12-25"})
	require.NoError(t, err)
	_, err = coordinator.Reserve(context.Background(), "R1", "2025-12-25", "tok-aaaaaaaa", 0)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/slots/calendar/R1/2025-12-25", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data model.SlotRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, model.StatusLocked, response.Data.Status)
	assert.Empty(t, response.Data.LockToken, "reads must not leak the holder's token")
}

func TestGetSlotEndpoint_UnknownSlotIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/slots/calendar/R1/2025-12-25", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
