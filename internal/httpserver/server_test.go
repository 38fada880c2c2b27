package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/bubbles"
	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/facade"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/links"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
	"github.com/MrSnakeDoc/bubbletime/internal/store/memory"
	"github.com/MrSnakeDoc/bubbletime/internal/timezone"
	"github.com/MrSnakeDoc/bubbletime/internal/version"
)

var fixedNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

type fakeTrigger struct{ queued bool }

func (f *fakeTrigger) Trigger() bool {
	if f.queued {
		return false
	}
	f.queued = true
	return true
}

type downStore struct{ *memory.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func testDeps(repo store.Repository) deps.Deps {
	times := timezone.NewService(timezone.NewIANA(), timezone.WithClock(func() time.Time { return fixedNow }))
	bs := bubbles.New(repo, times, logger.Nop())
	ls := links.New(repo, bs, times, logger.Nop())
	return deps.Deps{
		Logger:     logger.Nop(),
		StartTime:  fixedNow.Add(-time.Minute),
		Build:      version.Info{Version: "v1.0.0", Commit: "abc123"},
		TimeNow:    func() time.Time { return fixedNow },
		RateBurst:  1000,
		RatePerMin: 1000,
		StoreKind:  store.KindMemory,
		Store:      repo,
		Facade:     facade.New(bs, ls, times, logger.Nop()),
		Refresher:  &fakeTrigger{},
	}
}

type client struct {
	t *testing.T
	h http.Handler
}

func newClient(t *testing.T, d deps.Deps) *client {
	return &client{t: t, h: NewRouter(d)}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (c *client) addBubble(zone, name string) domain.Bubble {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/bubbles", map[string]string{"zone": zone, "name": name})
	if rec.Code != http.StatusCreated {
		c.t.Fatalf("POST /bubbles %s = %d %s", zone, rec.Code, rec.Body.String())
	}
	return decode[domain.Bubble](c.t, rec)
}

type selectResult struct {
	Outcome string       `json:"outcome"`
	Pending string       `json:"pending"`
	Link    *domain.Link `json:"link"`
	Error   string       `json:"error"`
}

func TestHealthz(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))

	rec := c.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["version"] != "v1.0.0" || body["commit"] != "abc123" {
		t.Errorf("body = %v", body)
	}
	if body["uptime_seconds"] != 60.0 {
		t.Errorf("uptime_seconds = %v, want 60", body["uptime_seconds"])
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name     string
		repo     store.Repository
		expected int
	}{
		{name: "store up", repo: memory.New(), expected: http.StatusOK},
		{name: "store down", repo: downStore{memory.New()}, expected: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, testDeps(tt.repo))
			if rec := c.do(http.MethodGet, "/readyz", nil); rec.Code != tt.expected {
				t.Errorf("GET /readyz = %d, want %d", rec.Code, tt.expected)
			}
		})
	}
}

func TestInfra(t *testing.T) {
	d := testDeps(downStore{memory.New()})
	c := newClient(t, d)
	c.addBubble("Europe/Madrid", "")

	rec := c.do(http.MethodGet, "/infra", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /infra = %d", rec.Code)
	}
	var body struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK      bool   `json:"ok"`
			Backend string `json:"backend"`
			Count   *int   `json:"count"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Mode != "degraded" {
		t.Errorf("mode = %q, want degraded", body.Mode)
	}
	if s := body.Components["store"]; s.OK || s.Backend != "memory" {
		t.Errorf("store component = %+v", s)
	}
	if b := body.Components["bubbles"]; b.Count == nil || *b.Count != 1 {
		t.Errorf("bubbles component = %+v", b)
	}
}

func TestProbesRestrictedByCIDR(t *testing.T) {
	d := testDeps(memory.New())
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	c := newClient(t, d)

	// httptest requests come from 192.0.2.1.
	if rec := c.do(http.MethodGet, "/healthz", nil); rec.Code != http.StatusForbidden {
		t.Errorf("GET /healthz = %d, want 403", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/bubbles", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /bubbles = %d, want 200", rec.Code)
	}
}

func TestBubbleLifecycle(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))

	b := c.addBubble("America/Argentina/Buenos_Aires", "")
	if b.Name != "Buenos Aires" || b.LocalTime != "09:00" {
		t.Errorf("created bubble = %+v", b)
	}

	rec := c.do(http.MethodGet, "/bubbles/"+b.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /bubbles/{id} = %d", rec.Code)
	}

	rec = c.do(http.MethodPatch, "/bubbles/"+b.ID, map[string]string{"name": "BA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH /bubbles/{id} = %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[domain.Bubble](t, rec); got.Name != "BA" {
		t.Errorf("renamed = %q, want BA", got.Name)
	}

	rec = c.do(http.MethodGet, "/bubbles", nil)
	if list := decode[[]domain.Bubble](t, rec); len(list) != 1 || list[0].Name != "BA" {
		t.Errorf("GET /bubbles = %+v", list)
	}

	rec = c.do(http.MethodDelete, "/bubbles/"+b.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /bubbles/{id} = %d", rec.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := c.do(method, "/bubbles/"+b.ID, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s removed bubble = %d, want 404", method, rec.Code)
		}
	}
}

func TestAddBubbleRejected(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		expected int
	}{
		{name: "invalid zone", body: map[string]string{"zone": "Mars/Olympus"}, expected: http.StatusBadRequest},
		{name: "empty zone", body: map[string]string{"zone": ""}, expected: http.StatusBadRequest},
		{name: "malformed json", body: "{", expected: http.StatusBadRequest},
		{name: "unknown field", body: `{"zone":"Europe/Madrid","color":"red"}`, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, testDeps(memory.New()))
			rec := c.do(http.MethodPost, "/bubbles", tt.body)
			if rec.Code != tt.expected {
				t.Fatalf("POST /bubbles = %d, want %d", rec.Code, tt.expected)
			}
			if body := decode[map[string]string](t, rec); body["error"] == "" {
				t.Error("missing error message")
			}
			if list := decode[[]domain.Bubble](t, c.do(http.MethodGet, "/bubbles", nil)); len(list) != 0 {
				t.Errorf("rejected add stored %d bubbles", len(list))
			}
		})
	}
}

func TestSelectionFlow(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))
	madrid := c.addBubble("Europe/Madrid", "")
	ba := c.addBubble("America/Argentina/Buenos_Aires", "")

	rec := c.do(http.MethodPost, "/bubbles/"+madrid.ID+"/select", nil)
	if res := decode[selectResult](t, rec); rec.Code != http.StatusOK || res.Outcome != "selected" || res.Pending != madrid.ID {
		t.Fatalf("first select = %d %+v", rec.Code, res)
	}

	rec = c.do(http.MethodGet, "/selection", nil)
	if body := decode[map[string]string](t, rec); body["pending"] != madrid.ID {
		t.Errorf("GET /selection = %v", body)
	}

	rec = c.do(http.MethodPost, "/bubbles/"+ba.ID+"/select", nil)
	res := decode[selectResult](t, rec)
	if rec.Code != http.StatusCreated || res.Outcome != "linked" || res.Link == nil {
		t.Fatalf("second select = %d %+v", rec.Code, res)
	}
	// Buenos Aires (UTC-3) is four hours behind Madrid (UTC+1) in January.
	if res.Link.TimeDifferenceHours != -4 {
		t.Errorf("TimeDifferenceHours = %d, want -4", res.Link.TimeDifferenceHours)
	}

	views := decode[[]domain.LinkView](t, c.do(http.MethodGet, "/links", nil))
	if len(views) != 1 || views[0].BubbleA.Name != "Madrid" || views[0].BubbleB.Name != "Buenos Aires" {
		t.Errorf("GET /links = %+v", views)
	}

	// The reversed pair is already linked.
	c.do(http.MethodPost, "/bubbles/"+ba.ID+"/select", nil)
	rec = c.do(http.MethodPost, "/bubbles/"+madrid.ID+"/select", nil)
	if res := decode[selectResult](t, rec); rec.Code != http.StatusOK || res.Outcome != "already_linked" {
		t.Errorf("duplicate select = %d %+v", rec.Code, res)
	}

	if rec := c.do(http.MethodPost, "/bubbles/nope/select", nil); rec.Code != http.StatusNotFound {
		t.Errorf("select unknown = %d, want 404", rec.Code)
	}

	// A failed second click still drops the pending bubble.
	c.do(http.MethodPost, "/bubbles/"+madrid.ID+"/select", nil)
	rec = c.do(http.MethodPost, "/bubbles/nope/select", nil)
	if res := decode[selectResult](t, rec); rec.Code != http.StatusNotFound || res.Outcome != "failed" {
		t.Errorf("second select unknown = %d %+v, want 404 failed", rec.Code, res)
	}
	if sel := decode[map[string]string](t, c.do(http.MethodGet, "/selection", nil)); sel["pending"] != "" {
		t.Errorf("GET /selection after failed link = %v, want empty", sel)
	}

	c.do(http.MethodPost, "/bubbles/"+madrid.ID+"/select", nil)
	if rec := c.do(http.MethodDelete, "/selection", nil); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE /selection = %d, want 204", rec.Code)
	}
	snap := decode[facade.Snapshot](t, c.do(http.MethodGet, "/state", nil))
	if snap.Pending != "" || len(snap.Bubbles) != 2 || len(snap.Links) != 1 {
		t.Errorf("GET /state = %+v", snap)
	}
}

func TestLinkEndpoints(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))
	a := c.addBubble("Europe/Madrid", "")
	b := c.addBubble("Asia/Tokyo", "")

	tests := []struct {
		name     string
		body     map[string]string
		expected int
	}{
		{name: "created", body: map[string]string{"a": a.ID, "b": b.ID}, expected: http.StatusCreated},
		{name: "duplicate", body: map[string]string{"a": b.ID, "b": a.ID}, expected: http.StatusConflict},
		{name: "self", body: map[string]string{"a": a.ID, "b": a.ID}, expected: http.StatusBadRequest},
		{name: "unknown", body: map[string]string{"a": a.ID, "b": "ghost"}, expected: http.StatusNotFound},
	}

	var linkID string
	for _, tt := range tests {
		rec := c.do(http.MethodPost, "/links", tt.body)
		if rec.Code != tt.expected {
			t.Errorf("%s: POST /links = %d, want %d (%s)", tt.name, rec.Code, tt.expected, rec.Body.String())
			continue
		}
		if rec.Code == http.StatusCreated {
			l := decode[domain.Link](t, rec)
			if l.TimeDifferenceHours != 8 {
				t.Errorf("Madrid->Tokyo = %d hours, want 8", l.TimeDifferenceHours)
			}
			linkID = l.ID
		}
	}

	if rec := c.do(http.MethodDelete, "/links/"+linkID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE /links/{id} = %d, want 204", rec.Code)
	}
	if rec := c.do(http.MethodDelete, "/links/"+linkID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE /links/{id} = %d, want 404", rec.Code)
	}
}

func TestRemoveBubbleReportsLinks(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))
	a := c.addBubble("Europe/Madrid", "")
	b := c.addBubble("Asia/Tokyo", "")
	x := c.addBubble("Europe/London", "")
	c.do(http.MethodPost, "/links", map[string]string{"a": a.ID, "b": b.ID})
	c.do(http.MethodPost, "/links", map[string]string{"a": x.ID, "b": a.ID})

	rec := c.do(http.MethodDelete, "/bubbles/"+a.ID, nil)
	body := decode[map[string]any](t, rec)
	if body["links_removed"] != 2.0 || body["removed"] != a.ID {
		t.Errorf("DELETE /bubbles/{id} = %v", body)
	}
	if views := decode[[]domain.LinkView](t, c.do(http.MethodGet, "/links", nil)); len(views) != 0 {
		t.Errorf("links after cascade = %d, want 0", len(views))
	}
}

func TestZones(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))

	rec := c.do(http.MethodGet, "/zones?q=madrid", nil)
	var body struct {
		Query string   `json:"query"`
		Zones []string `json:"zones"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Zones) == 0 || body.Zones[0] != "Europe/Madrid" {
		t.Errorf("GET /zones?q=madrid = %v", body.Zones)
	}

	rec = c.do(http.MethodGet, "/zones?limit=3", nil)
	all := decode[map[string][]string](t, rec)
	if len(all["zones"]) != 3 {
		t.Errorf("GET /zones?limit=3 = %d zones", len(all["zones"]))
	}

	if rec := c.do(http.MethodGet, "/zones?q=x&limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	c := newClient(t, testDeps(memory.New()))
	c.addBubble("Europe/Madrid", "")
	c.addBubble("Asia/Tokyo", "")

	rec := c.do(http.MethodPost, "/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /refresh = %d", rec.Code)
	}
	if report := decode[bubbles.RefreshReport](t, rec); report.Refreshed != 2 || len(report.Failures) != 0 {
		t.Errorf("report = %+v", report)
	}

	if rec := c.do(http.MethodPost, "/refresh?async=true", nil); rec.Code != http.StatusAccepted {
		t.Errorf("first async refresh = %d, want 202", rec.Code)
	}
	if rec := c.do(http.MethodPost, "/refresh?async=true", nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second async refresh = %d, want 429", rec.Code)
	}
}

func TestWriteGuard(t *testing.T) {
	d := testDeps(memory.New())
	d.AllowedHosts = []string{"time.example.com"}
	d.RateBurst = 1
	d.RatePerMin = 1
	c := newClient(t, d)

	// httptest requests use Host "example.com".
	if rec := c.do(http.MethodPost, "/bubbles", map[string]string{"zone": "Europe/Madrid"}); rec.Code != http.StatusForbidden {
		t.Errorf("POST with foreign host = %d, want 403", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/bubbles", nil); rec.Code != http.StatusOK {
		t.Errorf("GET is not guarded, got %d", rec.Code)
	}

	d.AllowedHosts = nil
	c = newClient(t, d)
	if rec := c.do(http.MethodPost, "/bubbles", map[string]string{"zone": "Europe/Madrid"}); rec.Code != http.StatusCreated {
		t.Fatalf("first POST = %d, want 201", rec.Code)
	}
	// The limiter is shared across mutating routes.
	if rec := c.do(http.MethodPost, "/links", map[string]string{"a": "x", "b": "y"}); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second write = %d, want 429", rec.Code)
	}
}
