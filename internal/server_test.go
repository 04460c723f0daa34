package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/gymfatigue/internal/config"
	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/gymstats/assessment"
	"github.com/2beens/gymfatigue/internal/gymstats/exercises"
	"github.com/2beens/gymfatigue/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	engine := fatigue.NewDefaultEngine()
	setsRepo := exercises.NewRepo(nil)
	sessions := assessment.NewSessionRegistry(assessment.NewSessionRegistryParams{
		Engine: engine,
	})
	metricsManager := metrics.NewTestManager()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	return &Server{
		config: &config.Config{
			AssessRateLimitAllowedPerMin: 10,
			CorsAllowedOrigins:           []string{"http://localhost:3000"},
		},
		versionInfo:    "abc123",
		redisClient:    rdb,
		setsRepo:       setsRepo,
		sessions:       sessions,
		metricsManager: metricsManager,
		assessmentService: assessment.NewService(assessment.NewServiceParams{
			Engine:   engine,
			SetsRepo: setsRepo,
			History:  exercises.NewHistoryBuilder(setsRepo),
			Sessions: sessions,
			Models:   assessment.NewModelCache(1, 0),
			Metrics:  metricsManager,
		}),
	}
}

func TestServer_routerSetup(t *testing.T) {
	s := newTestServer(t)
	r, err := s.routerSetup()
	require.NoError(t, err)

	var names []string
	require.NoError(t, r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if name := route.GetName(); name != "" {
			names = append(names, name)
		}
		return nil
	}))

	for _, want := range []string{
		"root",
		"new-set",
		"list-sets",
		"delete-set",
		"history",
		"fatigue-assess",
		"fatigue-assess-enhanced",
		"fatigue-rpe-calibration",
		"fatigue-workload",
		"fatigue-session-start",
		"fatigue-session-log-set",
		"fatigue-session-end",
		"mcp",
		"unknown",
	} {
		assert.Contains(t, names, want)
	}
}

func TestServer_rootAndUnknown(t *testing.T) {
	s := newTestServer(t)
	r, err := s.routerSetup()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gymfatigue abc123", rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_setsRequireUser(t *testing.T) {
	s := newTestServer(t)
	r, err := s.routerSetup()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sets", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metricsManager.CounterRequests.WithLabelValues("GET", "400")))
}

func TestServer_connStateMetrics(t *testing.T) {
	s := &Server{metricsManager: metrics.NewTestManager()}

	s.connStateMetrics(nil, http.StateNew)
	s.connStateMetrics(nil, http.StateNew)
	s.connStateMetrics(nil, http.StateActive)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metricsManager.GaugeRequests))

	s.connStateMetrics(nil, http.StateClosed)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metricsManager.GaugeRequests))
}
