package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/auth"
	"github.com/yourname/sleeptoggle/internal/health"
	"github.com/yourname/sleeptoggle/internal/metrics"
	"github.com/yourname/sleeptoggle/internal/service"
	"github.com/yourname/sleeptoggle/internal/storage"
	"github.com/yourname/sleeptoggle/internal/tracker"
)

type testApp struct {
	logger  internal.Logger
	sleep   *service.SleepService
	metrics *metrics.Recorder
}

func (a *testApp) Logger() internal.Logger      { return a.logger }
func (a *testApp) Sleep() *service.SleepService { return a.sleep }
func (a *testApp) Metrics() *metrics.Recorder   { return a.metrics }

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Meta  map[string]any     `json:"meta"`
	Error *internal.AppError `json:"error"`
}

func setupRouter(t *testing.T, sink *health.FakeSink) (*gin.Engine, *clockwork.FakeClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := internal.NewNopLogger()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 23, 0, 0, 0, time.UTC))
	tr := tracker.New(storage.NewMemoryStorage(), clock, logger)
	require.NoError(t, tr.Initialize(context.Background()))
	rec := metrics.New()
	app := &testApp{
		logger:  logger,
		metrics: rec,
		sleep: service.NewSleepService(service.Options{
			Tracker: tr,
			Sink:    sink,
			Metrics: rec,
			Clock:   clock,
			Logger:  logger,
			Source:  "test",
		}),
	}
	authMW := auth.AuthMiddleware(auth.NewLocalAuthProvider("MOCK-TOKEN", logger), "development")
	return NewRouter(app, authMW), clock
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer MOCK-TOKEN")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestToggleBedAndSubmitReview(t *testing.T) {
	r, clock := setupRouter(t, health.NewFakeSink(internal.AuthorizationAuthorized))

	rec, env := do(t, r, http.MethodPost, "/bed/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res service.ToggleResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.State.InBed)
	assert.Equal(t, "In bed", res.Labels.Bed)
	assert.Nil(t, res.Review)

	clock.Advance(8 * time.Hour)
	rec, env = do(t, r, http.MethodPost, "/bed/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Review)
	assert.Equal(t, "Get in bed", res.Labels.BedButton)

	rec, env = do(t, r, http.MethodGet, "/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []service.PendingReview
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)

	rec, env = do(t, r, http.MethodPost, "/reviews/"+res.Review.ID, `{"action":"submit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var sample internal.SleepSample
	require.NoError(t, json.Unmarshal(env.Data, &sample))
	assert.Equal(t, internal.KindInBed, sample.Kind)
	assert.Equal(t, 8*time.Hour, sample.EndTime.Sub(sample.StartTime))

	rec, env = do(t, r, http.MethodGet, "/samples", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta["count"])
}

func TestReviewDiscardAndValidation(t *testing.T) {
	sink := health.NewFakeSink(internal.AuthorizationAuthorized)
	r, _ := setupRouter(t, sink)

	do(t, r, http.MethodPost, "/sleep/toggle", "")
	_, env := do(t, r, http.MethodPost, "/sleep/toggle", "")
	var res service.ToggleResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Review)

	rec, _ := do(t, r, http.MethodPost, "/reviews/"+res.Review.ID, `{"action":"later"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/reviews/"+res.Review.ID, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, r, http.MethodPost, "/reviews/"+res.Review.ID, `{"action":"discard"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "discard", env.Meta["action"])
	assert.Empty(t, sink.Samples)

	rec, _ = do(t, r, http.MethodPost, "/reviews/"+res.Review.ID, `{"action":"submit"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitWithoutAuthorization(t *testing.T) {
	r, _ := setupRouter(t, health.NewFakeSink(internal.AuthorizationUndetermined))

	do(t, r, http.MethodPost, "/sleep/toggle", "")
	_, env := do(t, r, http.MethodPost, "/sleep/toggle", "")
	var res service.ToggleResult
	require.NoError(t, json.Unmarshal(env.Data, &res))

	rec, env := do(t, r, http.MethodPost, "/reviews/"+res.Review.ID, `{"action":"submit"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusForbidden, env.Error.Code)
}

func TestNoticeGate_DeniedBlocksUntilDismissed(t *testing.T) {
	r, _ := setupRouter(t, health.NewFakeSink(internal.AuthorizationDenied))

	rec, env := do(t, r, http.MethodPost, "/bed/toggle", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission_denied", env.Meta["notice"])

	rec, env = do(t, r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st service.Status
	require.NoError(t, json.Unmarshal(env.Data, &st))
	require.NotNil(t, st.Notice)
	assert.Equal(t, internal.AuthorizationDenied, st.Authorization)

	rec, _ = do(t, r, http.MethodPost, "/notice/dismiss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, r, http.MethodPost, "/bed/toggle", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, r, http.MethodPost, "/bed/toggle", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = do(t, r, http.MethodPost, "/health/authorization", `{"share":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"authorized"}`, string(env.Data))
	rec, _ = do(t, r, http.MethodPost, "/bed/toggle", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNoticeGate_MissingCapability(t *testing.T) {
	sink := health.NewFakeSink(internal.AuthorizationAuthorized)
	sink.Missing = true
	r, _ := setupRouter(t, sink)

	rec, env := do(t, r, http.MethodPost, "/sleep/toggle", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "capability_unavailable", env.Meta["notice"])

	rec, _ = do(t, r, http.MethodGet, "/samples", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthorizationEndpoints(t *testing.T) {
	r, _ := setupRouter(t, health.NewFakeSink(""))

	rec, env := do(t, r, http.MethodGet, "/health/authorization", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"undetermined"}`, string(env.Data))

	rec, _ = do(t, r, http.MethodPost, "/health/authorization", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, r, http.MethodPost, "/health/authorization", `{"share":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"denied"}`, string(env.Data))
}

func TestStatusLabelsStable(t *testing.T) {
	r, _ := setupRouter(t, health.NewFakeSink(internal.AuthorizationAuthorized))
	_, first := do(t, r, http.MethodGet, "/status", "")
	_, second := do(t, r, http.MethodGet, "/status", "")
	assert.JSONEq(t, string(first.Data), string(second.Data))
}

func TestUnauthorizedAndRequestID(t *testing.T) {
	r, _ := setupRouter(t, health.NewFakeSink(internal.AuthorizationAuthorized))

	req, _ := http.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupRouter(t, health.NewFakeSink(internal.AuthorizationAuthorized))
	do(t, r, http.MethodPost, "/bed/toggle", "")

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sleeptoggle_toggles_total")
}

func TestHandleDomainError_StatusFromSentinel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{internal.ErrReviewNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: end before start", internal.ErrInvalidInterval), http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err, want := tc.err, tc.want
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request, _ = http.NewRequest(http.MethodPost, "/reviews/x", nil)
		HandleDomainError(c, internal.NewNopLogger(), err, "Review failed")

		assert.Equal(t, want, rec.Code)
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.NotNil(t, env.Error)
		assert.Equal(t, want, env.Error.Code)
		assert.Contains(t, env.Error.Message, err.Error())
	}
}
