package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mihrab-app/mihrab/internal/http/api"
	"github.com/mihrab-app/mihrab/internal/model"
	"github.com/mihrab-app/mihrab/internal/network"
	"github.com/mihrab-app/mihrab/internal/prayertimes"
	"github.com/mihrab-app/mihrab/internal/qada"
	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/syncqueue"
	"github.com/mihrab-app/mihrab/internal/tracking"
)

const testSecret = "test-secret"

type testEnv struct {
	router  *gin.Engine
	store   *store.MemStore
	monitor *network.Monitor
	calcErr error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		store:   store.NewMemStore(),
		monitor: network.NewMonitor(),
	}
	calc := prayertimes.Func(func(ctx context.Context, coords prayertimes.Coordinates, date time.Time, method, madhab string) (model.PrayerTimes, error) {
		if env.calcErr != nil {
			return model.PrayerTimes{}, env.calcErr
		}
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		return model.PrayerTimes{
			Fajr:    day.Add(5 * time.Hour),
			Dhuhr:   day.Add(12 * time.Hour),
			Asr:     day.Add(16 * time.Hour),
			Maghrib: day.Add(19 * time.Hour),
			Isha:    day.Add(21 * time.Hour),
		}, nil
	})

	queue, err := syncqueue.New(env.store, env.monitor, calc)
	if err != nil {
		t.Fatalf("syncqueue.New: %v", err)
	}
	qadaSvc := qada.New(env.store, env.monitor, queue)
	trackingSvc := tracking.New(env.store, env.monitor, queue, qadaSvc)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"},
		AuthPublicModule(testSecret, env.store),
	)
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: testSecret,
		Store:     env.store,
	},
		AuthSessionModule(testSecret, env.store),
		TrackingModule(trackingSvc, calc),
		QadaModule(qadaSvc),
		SyncModule(queue, env.monitor),
		TimesModule(calc),
	)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signup(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    "user@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return resp.Token
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestSignupLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t)

	// Duplicate email.
	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": "user@example.com", "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup returned %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "user@example.com", "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "user@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login returned %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/tracking/records/2026-03-10", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d, want 401", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/tracking/records/2026-03-10", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: %d, want 401", rec.Code)
	}
}

func TestGetCurrentProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodGet, "/api/auth/current_profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile returned %d: %s", rec.Code, rec.Body.String())
	}
	var profile struct {
		Email string `json:"email"`
	}
	decodeInto(t, rec, &profile)
	if profile.Email != "user@example.com" {
		t.Errorf("email = %q", profile.Email)
	}
}

func TestUpdatePrayerStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodPut, "/api/tracking/records/2026-03-10/prayers/fajr", token, gin.H{
		"status": "completed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}
	var record model.DailyPrayerRecord
	decodeInto(t, rec, &record)
	if record.Prayers[model.Fajr].Status != model.StatusCompleted {
		t.Errorf("fajr status = %q", record.Prayers[model.Fajr].Status)
	}

	rec = env.do(t, http.MethodGet, "/api/tracking/records/2026-03-10", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read back returned %d", rec.Code)
	}
	decodeInto(t, rec, &record)
	if record.Prayers[model.Fajr].Status != model.StatusCompleted {
		t.Errorf("persisted fajr status = %q", record.Prayers[model.Fajr].Status)
	}
}

func TestUpdatePrayerStatusRejectsUnknownName(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodPut, "/api/tracking/records/2026-03-10/prayers/tahajjud", token, gin.H{
		"status": "completed",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown prayer returned %d, want 400", rec.Code)
	}
}

func TestQadaPendingStatusMintsLedgerEntry(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodPut, "/api/tracking/records/2026-03-10/prayers/fajr", token, gin.H{
		"status": "qada-pending",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}
	var record model.DailyPrayerRecord
	decodeInto(t, rec, &record)
	if record.Prayers[model.Fajr].Status != model.StatusMissed {
		t.Errorf("stored status = %q, want missed", record.Prayers[model.Fajr].Status)
	}

	rec = env.do(t, http.MethodGet, "/api/qada", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("qada returned %d", rec.Code)
	}
	var debt model.QadaDebt
	decodeInto(t, rec, &debt)
	if debt.TotalPending != 1 {
		t.Errorf("TotalPending = %d, want 1", debt.TotalPending)
	}
}

func TestQadaCompleteRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodPost, "/api/qada/records", token, gin.H{
		"prayer": "asr", "date": "2026-03-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add qada returned %d: %s", rec.Code, rec.Body.String())
	}
	var debt model.QadaDebt
	decodeInto(t, rec, &debt)
	id := debt.Prayers[model.Asr][0].ID

	rec = env.do(t, http.MethodPut, "/api/qada/records/"+id+"/complete", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete returned %d", rec.Code)
	}
	decodeInto(t, rec, &debt)
	if debt.TotalPending != 0 {
		t.Errorf("TotalPending = %d, want 0", debt.TotalPending)
	}

	rec = env.do(t, http.MethodGet, "/api/qada/pending?prayer=asr", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending returned %d", rec.Code)
	}
	var pending []model.QadaPrayerRecord
	decodeInto(t, rec, &pending)
	if len(pending) != 0 {
		t.Errorf("pending = %v, want empty", pending)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	env.do(t, http.MethodPut, "/api/tracking/records/2026-03-10/prayers/fajr", token, gin.H{"status": "completed"})

	rec := env.do(t, http.MethodGet, "/api/tracking/stats?start=2026-03-01&end=2026-03-31", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats returned %d: %s", rec.Code, rec.Body.String())
	}
	var stats model.TrackingStats
	decodeInto(t, rec, &stats)
	if stats.TotalCompleted != 1 {
		t.Errorf("TotalCompleted = %d, want 1", stats.TotalCompleted)
	}

	rec = env.do(t, http.MethodGet, "/api/tracking/stats?start=2026-03-01", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing end param returned %d, want 400", rec.Code)
	}
}

func TestPrayerTimesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodGet, "/api/prayer-times?date=2026-03-10&latitude=30.04&longitude=31.24", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("prayer-times returned %d: %s", rec.Code, rec.Body.String())
	}
	var times model.PrayerTimes
	decodeInto(t, rec, &times)
	if times.Fajr.Hour() != 5 {
		t.Errorf("fajr hour = %d, want 5", times.Fajr.Hour())
	}
}

func TestPrayerTimesEndpointUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)
	env.calcErr = fmt.Errorf("upstream down")

	rec := env.do(t, http.MethodGet, "/api/prayer-times?date=2026-03-10&latitude=30.04&longitude=31.24", token, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("upstream failure returned %d, want 502", rec.Code)
	}
}

func TestNetworkEventUpdatesStatus(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodGet, "/api/network/status", token, nil)
	var info model.NetworkInfo
	decodeInto(t, rec, &info)
	if info.Status != model.NetworkUnknown {
		t.Errorf("initial status = %q, want unknown", info.Status)
	}

	up := true
	rec = env.do(t, http.MethodPost, "/api/network/events", token, gin.H{
		"connected": &up, "internet_reachable": &up, "type": "wifi",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("event returned %d: %s", rec.Code, rec.Body.String())
	}
	decodeInto(t, rec, &info)
	if info.Status != model.NetworkOnline {
		t.Errorf("status after event = %q, want online", info.Status)
	}
}

func TestSyncStatusAndTrigger(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodGet, "/api/sync/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status returned %d", rec.Code)
	}
	var status model.SyncStatus
	decodeInto(t, rec, &status)
	if status.IsOnline {
		t.Error("sync status reports online, monitor is offline")
	}

	rec = env.do(t, http.MethodPost, "/api/sync/trigger", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trigger returned %d", rec.Code)
	}
}

func TestCustomPrayerEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodPut, "/api/tracking/records/2026-03-10/custom", token, gin.H{
		"type": "witr", "name": "Witr", "rakaat": 3, "completed": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("custom update returned %d: %s", rec.Code, rec.Body.String())
	}
	var record model.DailyPrayerRecord
	decodeInto(t, rec, &record)
	if len(record.CustomPrayers) != 1 || !record.CustomPrayers[0].Completed {
		t.Fatalf("custom prayers = %+v", record.CustomPrayers)
	}
	id := record.CustomPrayers[0].ID

	rec = env.do(t, http.MethodDelete, "/api/tracking/records/2026-03-10/custom/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("custom delete returned %d", rec.Code)
	}
	decodeInto(t, rec, &record)
	if len(record.CustomPrayers) != 0 {
		t.Errorf("custom prayers after delete = %+v", record.CustomPrayers)
	}
}

func TestAutoMarkEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	// A date far in the past: every prayer instant cleared the threshold long
	// ago, so all five pending prayers get marked.
	rec := env.do(t, http.MethodPost,
		"/api/tracking/records/2020-01-01/auto-mark?latitude=30.04&longitude=31.24", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("auto-mark returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Marked int `json:"marked"`
	}
	decodeInto(t, rec, &resp)
	if resp.Marked != 5 {
		t.Errorf("marked = %d, want 5", resp.Marked)
	}

	rec = env.do(t, http.MethodGet, "/api/tracking/records/2020-01-01", token, nil)
	var record model.DailyPrayerRecord
	decodeInto(t, rec, &record)
	if record.Prayers[model.Maghrib].Status != model.StatusMissed {
		t.Errorf("maghrib status = %q, want missed", record.Prayers[model.Maghrib].Status)
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	rec := env.do(t, http.MethodGet, "/api/tracking/preferences", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preferences returned %d", rec.Code)
	}
	var prefs model.TrackingPreferences
	decodeInto(t, rec, &prefs)
	if prefs.AutoMarkMissedAfterMinutes != 720 {
		t.Errorf("default threshold = %d, want 720", prefs.AutoMarkMissedAfterMinutes)
	}

	prefs.AutoMarkMissedAfterMinutes = 120
	rec = env.do(t, http.MethodPut, "/api/tracking/preferences", token, prefs)
	if rec.Code != http.StatusOK {
		t.Fatalf("preferences update returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/tracking/preferences", token, nil)
	decodeInto(t, rec, &prefs)
	if prefs.AutoMarkMissedAfterMinutes != 120 {
		t.Errorf("stored threshold = %d, want 120", prefs.AutoMarkMissedAfterMinutes)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	env.do(t, http.MethodPut, "/api/tracking/records/2026-03-10/prayers/isha", token, gin.H{"status": "delayed"})

	rec := env.do(t, http.MethodGet, "/api/tracking/export", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d", rec.Code)
	}
	var exported map[string]model.DailyPrayerRecord
	decodeInto(t, rec, &exported)
	if len(exported) != 1 {
		t.Fatalf("exported %d days, want 1", len(exported))
	}

	rec = env.do(t, http.MethodDelete, "/api/tracking/records", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear returned %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/tracking/import", token, exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/tracking/records/2026-03-10", token, nil)
	var record model.DailyPrayerRecord
	decodeInto(t, rec, &record)
	if record.Prayers[model.Isha].Status != model.StatusDelayed {
		t.Errorf("imported isha status = %q", record.Prayers[model.Isha].Status)
	}
}
