package itest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mergington-high/activities-api/internal/adapters/httpapi"
	memactivityrepo "github.com/mergington-high/activities-api/internal/adapters/memory/activityrepo"
	memclock "github.com/mergington-high/activities-api/internal/adapters/memory/clock"
	pgactivityrepo "github.com/mergington-high/activities-api/internal/adapters/postgres/activityrepo"
	postgres_testutil "github.com/mergington-high/activities-api/internal/adapters/postgres/testutil"
	redisactivityrepo "github.com/mergington-high/activities-api/internal/adapters/redis/activityrepo"
	"github.com/mergington-high/activities-api/internal/app/roster"
	activityrepoport "github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
	backendRedis    backend = "redis"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "redis":
		return []backend{backendRedis}
	case "all":
		return []backend{backendMemory, backendPostgres, backendRedis}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|redis|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 9, 1, 15, 30, 0, 0, time.UTC))

	var repo activityrepoport.Repository
	switch b {
	case backendPostgres:
		repo = pgactivityrepo.NewRepo(postgres_testutil.OpenMigratedPool(t))
	case backendRedis:
		addr := os.Getenv("TEST_REDIS_ADDR")
		if addr == "" {
			t.Skip("TEST_REDIS_ADDR not set; skipping redis itest")
		}
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { _ = rdb.Close() })
		repo = redisactivityrepo.NewRepo(rdb, "itest:"+uuid.NewString()+":")
	case backendMemory:
		repo = memactivityrepo.NewRepo()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	svc := roster.NewService(repo, clk)
	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	handler := httpapi.NewRouterWithOptions(httpapi.NewServer(svc, nil), httpapi.RouterOptions{})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) do(t *testing.T, method string, path string) (int, []byte, http.Header) {
	t.Helper()

	req, err := http.NewRequest(method, s.url(path), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

func membershipPath(activity, action, email string) string {
	return "/activities/" + url.PathEscape(activity) + "/" + action + "?email=" + url.QueryEscape(email)
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Detail == "" {
		t.Fatalf("expected detail to be set; body=%s", string(body))
	}
}

func requireHeaderContains(t *testing.T, h http.Header, key, want string) {
	t.Helper()
	if !strings.Contains(h.Get(key), want) {
		t.Fatalf("header %q=%q, want it to contain %q", key, h.Get(key), want)
	}
}
