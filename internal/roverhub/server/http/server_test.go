package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/service"
	"github.com/autopeer-io/roverhub/internal/roverhub/store"
	"github.com/autopeer-io/roverhub/internal/roverhub/transcription"
	"github.com/autopeer-io/roverhub/pkg/options"
)

func newTestServer(t *testing.T, checks ...ReadinessCheck) (http.Handler, *service.Service) {
	t.Helper()

	st := store.NewMemory(model.NewSystemState(map[string]string{"jetson": "cam-j", "pi": "cam-p"}, 100))
	svc := service.New(st, broadcast.NewBroadcaster(broadcast.NewRegistry(), st), transcription.NewResolver())
	return NewServer(options.NewHttpOptions(), svc, nil, checks...).Handler(), svc
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rec, out
}

func TestStartMission(t *testing.T) {
	h, _ := newTestServer(t)

	rec, out := do(t, h, http.MethodPost, "/mission/start",
		`{"lat": 34.0522, "lon": -118.2437, "payload": "medkit", "priority": "high"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if out["status"] != "Mission started" {
		t.Errorf("status field = %v", out["status"])
	}
	data := out["data"].(map[string]any)
	if data["mission_state"] != "active" || data["payload"] != "medkit" || data["priority"] != "high" || data["lat"] != 34.0522 {
		t.Errorf("data = %v", data)
	}
}

func TestStartMissionRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing fields", `{"lat": 1, "payload": "x"}`, "Missing fields"},
		{"not json", `lat=1`, "Invalid JSON body"},
		{"wrong type", `{"lat": "north", "lon": 1, "payload": "x", "priority": "y"}`, "Invalid value for lat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestServer(t)

			rec, out := do(t, h, http.MethodPost, "/mission/start", tt.body)
			if rec.Code != http.StatusBadRequest || out["error"] != tt.wantErr {
				t.Fatalf("got %d %v", rec.Code, out)
			}
			if svc.Snapshot().State.MissionState != model.MissionIdle {
				t.Fatal("rejected start changed the mission state")
			}
		})
	}

	h, _ := newTestServer(t)
	_, out := do(t, h, http.MethodPost, "/mission/start", `{"lat": 1, "payload": "x"}`)
	missing, _ := out["missing"].([]any)
	if len(missing) != 2 || missing[0] != "lon" || missing[1] != "priority" {
		t.Errorf("missing = %v", out["missing"])
	}
}

func TestCompleteMission(t *testing.T) {
	h, _ := newTestServer(t)

	if rec, _ := do(t, h, http.MethodPost, "/mission/complete", ""); rec.Code != http.StatusConflict {
		t.Fatalf("complete from idle: %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/mission/start", `{"lat": 1, "lon": 2, "payload": "x", "priority": "low"}`)
	rec, out := do(t, h, http.MethodPost, "/mission/complete", "")
	if rec.Code != http.StatusOK || out["status"] != "Mission completed" {
		t.Fatalf("got %d %v", rec.Code, out)
	}
	if out["data"].(map[string]any)["mission_state"] != "completed" {
		t.Errorf("data = %v", out["data"])
	}
}

func TestControlRover(t *testing.T) {
	h, _ := newTestServer(t)

	rec, out := do(t, h, http.MethodPost, "/rover/control", `{"rover_id": "jetson", "command": "forward"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if out["status"] != "Command received" || out["rover_id"] != "jetson" || out["command"] != "forward" {
		t.Errorf("response = %v", out)
	}
	pos := out["new_position"].(map[string]any)
	if pos["lat"] != model.StepDegrees || pos["lon"] != 0.0 {
		t.Errorf("new_position = %v", pos)
	}
	if _, leaked := out["moving"]; leaked {
		t.Error("internal moving flag leaked into the response")
	}
}

func TestControlRoverRejects(t *testing.T) {
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"rover_id": "curiosity", "command": "forward"}`, "Invalid or missing rover_id"},
		{`{"command": "forward"}`, "Invalid or missing rover_id"},
		{`{"rover_id": "pi", "command": "jump"}`, "Invalid command"},
		{`{"rover_id": "curiosity", "command": "jump"}`, "Invalid or missing rover_id"},
	}

	for _, tt := range tests {
		h, svc := newTestServer(t)

		rec, out := do(t, h, http.MethodPost, "/rover/control", tt.body)
		if rec.Code != http.StatusBadRequest || out["error"] != tt.wantErr {
			t.Errorf("%s: got %d %v", tt.body, rec.Code, out)
		}
		if svc.Snapshot().Version != 0 {
			t.Errorf("%s: rejected command changed the state", tt.body)
		}
	}
}

func TestStatus(t *testing.T) {
	h, _ := newTestServer(t)

	for _, path := range []string{"/status", "/status/"} {
		rec, out := do(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		rovers := out["rovers"].(map[string]any)
		jetson := rovers["jetson"].(map[string]any)
		if out["mission_state"] != "idle" || out["battery"] != 100.0 || jetson["camera_url"] != "cam-j" || jetson["status"] != "offline" {
			t.Errorf("%s: state = %v", path, out)
		}
		if _, ok := out["lat"]; ok {
			t.Errorf("%s: mission target present before any mission", path)
		}
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/rover/control", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}

	rec, _ = do(t, h, http.MethodGet, "/status", "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing on GET")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	var notReady error = errors.New("mqtt not connected")
	h, _ := newTestServer(t, func() error { return notReady })

	if rec, _ := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec, _ := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz while not ready = %d", rec.Code)
	}
	notReady = nil
	if rec, _ := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz when ready = %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/rover/control", `{"rover_id": "pi", "command": "stop"}`)
	rec, _ := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `roverhub_commands_total{command="rover_control",result="ok"}`) {
		t.Errorf("metrics missing the rover command counter")
	}
}
