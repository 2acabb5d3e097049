package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/repository/registry"
	"github.com/mamadbah2/flockage/internal/repository/sqlite"
	"github.com/mamadbah2/flockage/internal/server/handlers"
	"github.com/mamadbah2/flockage/internal/service/flocks"
)

type fakeMessaging struct {
	handled   int
	handleErr error
	sendErr   error
}

func (f *fakeMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if token != "verify" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(context.Context, models.WebhookPayload) error {
	f.handled++
	return f.handleErr
}

func (f *fakeMessaging) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return f.sendErr
}

func setupRouter(t *testing.T, messaging *fakeMessaging) (http.Handler, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New(filepath.Join(t.TempDir(), "flocks.json"), nil)
	reg.Load()
	svc := flocks.NewService(reg, agecalc.NewWeekdayFormatter("ko"), time.UTC, nil).
		WithClock(func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) })

	var chat *handlers.ChatHandler
	if messaging != nil {
		chat = handlers.NewChatHandler(messaging, nil)
	}
	return New(handlers.NewFlockHandler(svc, nil), nil, chat, nil), reg
}

type failingHistory struct{}

func (failingHistory) History(context.Context, string) ([]models.AgeSnapshot, error) {
	return nil, errors.New("archive offline")
}

func historyRouter(t *testing.T, store handlers.SnapshotHistory) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New(filepath.Join(t.TempDir(), "flocks.json"), nil)
	svc := flocks.NewService(reg, agecalc.NewWeekdayFormatter("en"), time.UTC, nil)
	return New(handlers.NewFlockHandler(svc, nil), handlers.NewHistoryHandler(store, nil), nil, nil)
}

func doReq(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	h, _ := setupRouter(t, nil)
	rec := doReq(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := setupRouter(t, nil)
	rec := doReq(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAgeByDate(t *testing.T) {
	h, _ := setupRouter(t, nil)

	rec := doReq(t, h, http.MethodGet, "/api/age?hatch=2024-01-01&target=2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, float64(74), body["total_days"])
	assert.Equal(t, float64(10), body["weeks"])
	assert.Equal(t, float64(4), body["extra_days"])

	rec = doReq(t, h, http.MethodGet, "/api/age?hatch=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "2024-03-15", body["target_date"])
}

func TestAgeByDate_Errors(t *testing.T) {
	h, _ := setupRouter(t, nil)

	rec := doReq(t, h, http.MethodGet, "/api/age?hatch=2024-05-01&target=2024-04-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "invalid_range", body["kind"])

	rec = doReq(t, h, http.MethodGet, "/api/age?hatch=01/01/2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "invalid_format", body["kind"])
}

func TestDateByAge(t *testing.T) {
	h, _ := setupRouter(t, nil)

	rec := doReq(t, h, http.MethodGet, "/api/date?hatch=2024-01-01&weeks=15&days=0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "2024-04-15", body["target_date"])
	assert.Equal(t, "2024-04-15 (월)", body["display_date"])
	assert.Equal(t, float64(105), body["total_days"])

	rec = doReq(t, h, http.MethodGet, "/api/date?hatch=2024-01-01&weeks=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, q := range []string{
		"weeks=1000000",
		"weeks=1317624576693539401",
		"weeks=1&days=9223372036854775807",
	} {
		rec = doReq(t, h, http.MethodGet, "/api/date?hatch=2024-01-01&"+q, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, q)
		var errBody map[string]string
		decode(t, rec, &errBody)
		assert.Equal(t, "invalid_format", errBody["kind"], q)
	}
}

func TestFlockLifecycle(t *testing.T) {
	h, reg := setupRouter(t, nil)

	rec := doReq(t, h, http.MethodPut, "/api/flocks/A-house", map[string]string{"hatch_date": "2024-01-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upsert map[string]any
	decode(t, rec, &upsert)
	assert.Equal(t, true, upsert["persisted"])

	rec = doReq(t, h, http.MethodPut, "/api/flocks/B-house", map[string]string{"hatch_date": "2024-04-01"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/api/flocks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]string
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, map[string]string{"name": "A-house", "hatch_date": "2024-01-01"}, list[0])

	rec = doReq(t, h, http.MethodGet, "/api/flocks/ages?target=2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ages []models.FlockAge
	decode(t, rec, &ages)
	require.Len(t, ages, 2)
	assert.Equal(t, 74, ages[0].TotalDays)
	assert.NotEmpty(t, ages[1].Error)

	rec = doReq(t, h, http.MethodGet, "/api/flocks/dates?weeks=15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dates []models.FlockDate
	decode(t, rec, &dates)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-04-15", dates[0].TargetDate)

	rec = doReq(t, h, http.MethodDelete, "/api/flocks/A-house", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var del map[string]bool
	decode(t, rec, &del)
	assert.True(t, del["removed"])

	rec = doReq(t, h, http.MethodDelete, "/api/flocks/A-house", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &del)
	assert.False(t, del["removed"])

	assert.Equal(t, 1, registry.New(reg.Path(), nil).Load()["B-house"].Day())
}

func TestUpsert_Invalid(t *testing.T) {
	h, _ := setupRouter(t, nil)

	rec := doReq(t, h, http.MethodPut, "/api/flocks/A", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doReq(t, h, http.MethodPut, "/api/flocks/A", map[string]string{"hatch_date": "2024-02-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doReq(t, h, http.MethodPut, "/api/flocks/%20", map[string]string{"hatch_date": "2024-02-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "validation", body["kind"])
}

func TestChatRoutesOnlyWhenConfigured(t *testing.T) {
	h, _ := setupRouter(t, nil)
	rec := doReq(t, h, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatRoutes(t *testing.T) {
	msg := &fakeMessaging{handleErr: errors.New("send failed")}
	h, _ := setupRouter(t, msg)

	rec := doReq(t, h, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=abc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())

	rec = doReq(t, h, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=abc", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var errBody map[string]string
	decode(t, rec, &errBody)
	assert.Equal(t, "forbidden", errBody["kind"])

	// command failures are still acknowledged so Meta does not redeliver
	rec = doReq(t, h, http.MethodPost, "/webhook", models.WebhookPayload{Object: "whatsapp_business_account"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, msg.handled)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, 1, msg.handled)

	rec = doReq(t, h, http.MethodPost, "/send-message", map[string]string{"to": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &errBody)
	assert.Equal(t, "invalid_format", errBody["kind"])

	rec = doReq(t, h, http.MethodPost, "/send-message", models.OutboundMessageRequest{To: "1", Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"to":"1","sent":true}`, rec.Body.String())

	msg.sendErr = errors.New("down")
	rec = doReq(t, h, http.MethodPost, "/send-message", models.OutboundMessageRequest{To: "1", Message: "hi"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	decode(t, rec, &errBody)
	assert.Equal(t, "upstream", errBody["kind"])
	assert.NotContains(t, errBody["error"], "down")
}

func TestFlockHistory(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	hatch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveAgeSnapshots(ctx, []models.AgeSnapshot{
		{Date: day.AddDate(0, 0, 1), Flock: "A house", HatchDate: hatch, TotalDays: 75, Weeks: 10, ExtraDays: 5, CreatedAt: created},
		{Date: day, Flock: "A house", HatchDate: hatch, TotalDays: 74, Weeks: 10, ExtraDays: 4, CreatedAt: created},
		{Date: day, Flock: "B house", HatchDate: hatch, TotalDays: 74, Weeks: 10, ExtraDays: 4, CreatedAt: created},
	}))

	h := historyRouter(t, repo)

	rec := doReq(t, h, http.MethodGet, "/api/flocks/%20A%20house%20/history", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Flock     string `json:"flock"`
		Snapshots []struct {
			Date      string `json:"date"`
			HatchDate string `json:"hatch_date"`
			TotalDays int    `json:"total_days"`
			Weeks     int    `json:"weeks"`
			ExtraDays int    `json:"extra_days"`
		} `json:"snapshots"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "A house", body.Flock)
	require.Len(t, body.Snapshots, 2)
	assert.Equal(t, "2024-03-15", body.Snapshots[0].Date)
	assert.Equal(t, "2024-01-01", body.Snapshots[0].HatchDate)
	assert.Equal(t, 74, body.Snapshots[0].TotalDays)
	assert.Equal(t, "2024-03-16", body.Snapshots[1].Date)
	assert.Equal(t, 5, body.Snapshots[1].ExtraDays)

	rec = doReq(t, h, http.MethodGet, "/api/flocks/Nobody/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"flock":"Nobody","snapshots":[]}`, rec.Body.String())

	rec = doReq(t, h, http.MethodGet, "/api/flocks/%20/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody map[string]string
	decode(t, rec, &errBody)
	assert.Equal(t, "validation", errBody["kind"])

	// static batch routes still win over the name parameter
	rec = doReq(t, h, http.MethodGet, "/api/flocks/ages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFlockHistory_ArchiveFailure(t *testing.T) {
	h := historyRouter(t, failingHistory{})

	rec := doReq(t, h, http.MethodGet, "/api/flocks/A/history", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "internal", body["kind"])
	assert.NotContains(t, body["error"], "offline")
}

func TestFlockHistoryOnlyWithArchive(t *testing.T) {
	h, _ := setupRouter(t, nil)
	rec := doReq(t, h, http.MethodGet, "/api/flocks/A/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
