package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/activity-booking/internal/handler"
	"github.com/iliyamo/activity-booking/internal/middleware"
	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/repository"
	"github.com/iliyamo/activity-booking/internal/router"
	"github.com/iliyamo/activity-booking/internal/service"
	"github.com/iliyamo/activity-booking/internal/utils"
)

const goodKey = "bk_live_test"

type keyStore struct{ keys map[string]*model.APIKey }

func (s keyStore) Create(context.Context, *model.APIKey) error { return nil }
func (s keyStore) GetByHash(_ context.Context, hash string) (*model.APIKey, error) {
	if k, ok := s.keys[hash]; ok {
		return k, nil
	}
	return nil, model.ErrNotFound
}

type activityStore struct {
	service.ActivityStore
	acts map[uint64]*model.Activity
}

func (s activityStore) Get(_ context.Context, id uint64) (*model.Activity, error) {
	if a, ok := s.acts[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("activity %d: %w", id, model.ErrNotFound)
}

// windowStore books each (activity, start, end) window at most once.
type windowStore struct {
	service.ReservationStore
	mu    sync.Mutex
	seq   uint64
	slots map[string]uint64
	taken map[uint64]bool
}

func (s *windowStore) BookWindow(_ context.Context, activityID uint64, start, end time.Time, nb repository.NewBooking) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := fmt.Sprintf("%d|%s|%s", activityID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	slot, ok := s.slots[k]
	if !ok {
		s.seq++
		slot = s.seq
		s.slots[k] = slot
	}
	if s.taken[slot] {
		return nil, fmt.Errorf("timeslot %d: %w", slot, model.ErrConflict)
	}
	s.taken[slot] = true
	s.seq++
	if nb.Payment != nil {
		nb.Payment.ID = s.seq
	}
	return &model.Reservation{ID: s.seq, UserID: nb.UserID, TimeslotID: slot, Status: nb.Status, Source: nb.Source}, nil
}

func owner(id uint64) *uint64 { return &id }

func newWebhookServer() (*echo.Echo, *windowStore) {
	store := &windowStore{slots: map[string]uint64{}, taken: map[uint64]bool{}}
	intake := &service.IntakeService{
		APIKeys: keyStore{keys: map[string]*model.APIKey{
			utils.HashSecret(goodKey): {ID: 1, UserID: 7, ExpiresAt: time.Now().Add(time.Hour)},
		}},
		Activities: activityStore{acts: map[uint64]*model.Activity{
			3: {ID: 3, OwnerID: owner(7), PriceCents: 2500, IsActive: true},
			4: {ID: 4, OwnerID: owner(8), PriceCents: 900, IsActive: true},
		}},
		Reservations: store,
	}
	e := echo.New()
	router.RegisterWebhook(e, &handler.WebhookHandler{Intake: intake}, intake.Authenticate, nil)
	return e, store
}

func post(e *echo.Echo, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(middleware.HeaderAPIKey, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func payload(exploitant, activity uint64, start string) string {
	return fmt.Sprintf(`{"exploitant_id":%d,"activity_id":%d,"start_time":%q,"end_time":"2026-07-01T11:00:00Z"}`,
		exploitant, activity, start)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWebhookCreatesThenConflicts(t *testing.T) {
	e, _ := newWebhookServer()
	body := payload(7, 3, "2026-07-01T10:00:00Z")

	rec := post(e, goodKey, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "reservation created", out["message"])
	assert.NotZero(t, out["reservation_id"])
	assert.NotZero(t, out["payment_id"])
	assert.Equal(t, float64(1), out["timeslot_id"])

	rec = post(e, goodKey, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec)["error"])
}

func TestWebhookAuthentication(t *testing.T) {
	e, store := newWebhookServer()
	body := payload(7, 3, "2026-07-01T10:00:00Z")

	for _, key := range []string{"", "bk_live_unknown"} {
		rec := post(e, key, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "key %q", key)
		assert.Equal(t, "unauthorized", decode(t, rec)["error"])
	}
	assert.Empty(t, store.taken)
}

func TestWebhookOwnershipAndLookup(t *testing.T) {
	e, store := newWebhookServer()

	rec := post(e, goodKey, payload(8, 3, "2026-07-01T10:00:00Z"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(e, goodKey, payload(7, 4, "2026-07-01T10:00:00Z"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(e, goodKey, payload(7, 99, "2026-07-01T10:00:00Z"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, store.slots)
}

func TestWebhookValidation(t *testing.T) {
	e, store := newWebhookServer()

	cases := map[string]string{
		"malformed json":  `{"exploitant_id":`,
		"missing ids":     `{"start_time":"2026-07-01T10:00:00Z","end_time":"2026-07-01T11:00:00Z"}`,
		"bad timestamp":   payload(7, 3, "tomorrow"),
		"inverted window": payload(7, 3, "2026-07-01T12:00:00Z"),
	}
	for name, body := range cases {
		rec := post(e, goodKey, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, "validation_error", decode(t, rec)["error"], name)
	}
	assert.Empty(t, store.slots)
}
