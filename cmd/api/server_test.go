package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		App:          config.AppConfig{Name: "maintenance-test", Version: "test", RequestTimeoutSeconds: 5},
		Auth:         config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		Notification: config.NotificationConfig{StreamKey: "test"},
	}
	pg, err := persistence.NewPostgres(context.Background(), cfg.Postgres, logger)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	redis := persistence.NewRedis(cfg.Redis, logger)
	srv := buildServer(cfg, logger, access.NewGate(access.DefaultTable()), pg, redis)

	if _, _, err := srv.users.EnsureBootstrapAdmin(context.Background(), "admin@plant.example", "admin-password"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return srv
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, resp := call(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d %+v", email, status, resp.Error)
	}
	return decode[struct {
		Token string `json:"token"`
	}](t, resp.Data).Token
}

func createUser(t *testing.T, app *fiber.App, adminToken, name, role string) (string, string) {
	t.Helper()
	email := name + "@plant.example"
	status, resp := call(t, app, http.MethodPost, "/users", adminToken, map[string]string{
		"name": name, "email": email, "password": "password-" + name, "role": role,
	})
	if status != http.StatusCreated {
		t.Fatalf("create user %s: status %d %+v", name, status, resp.Error)
	}
	id := decode[struct {
		ID string `json:"id"`
	}](t, resp.Data).ID
	return id, login(t, app, email, "password-"+name)
}

type requestView struct {
	ID                      string  `json:"id"`
	Status                  string  `json:"status"`
	AssignedTo              *string `json:"assignedTo"`
	Participants            []string
	PendingResolution       *struct{ Status string } `json:"pendingResolution"`
	ResolutionRequestStatus *string                  `json:"resolutionRequestStatus"`
	UserApproval            *string                  `json:"userApproval"`
}

type mutationView struct {
	Request            requestView `json:"request"`
	RemovedAssignments *int        `json:"removedAssignments"`
}

func TestHTTPLifecycle(t *testing.T) {
	srv := newTestServer(t)
	app := srv.app

	adminToken := login(t, app, "admin@plant.example", "admin-password")
	_, leadToken := createUser(t, app, adminToken, "lena", "lead")
	techID, techToken := createUser(t, app, adminToken, "tom", "technician")
	operatorID, operatorToken := createUser(t, app, adminToken, "olga", "operator")

	status, resp := call(t, app, http.MethodPost, "/machines", leadToken, map[string]string{"name": "Press 7"})
	if status != http.StatusCreated {
		t.Fatalf("create machine: %d %+v", status, resp.Error)
	}
	machineID := decode[struct {
		ID string `json:"id"`
	}](t, resp.Data).ID

	status, resp = call(t, app, http.MethodPost, "/requests", operatorToken, map[string]string{
		"title": "Oil leak", "machineId": machineID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create request: %d %+v", status, resp.Error)
	}
	created := decode[mutationView](t, resp.Data).Request
	if created.Status != "Pending" || len(created.Participants) != 1 || created.Participants[0] != operatorID {
		t.Fatalf("unexpected request %+v", created)
	}
	base := "/requests/" + created.ID

	status, resp = call(t, app, http.MethodPost, base+"/assignment", leadToken, map[string]string{"technicianId": techID})
	if status != http.StatusOK {
		t.Fatalf("assign: %d %+v", status, resp.Error)
	}

	status, resp = call(t, app, http.MethodPost, base+"/resolution", techToken, map[string]string{"status": "Resolved"})
	if status != http.StatusOK {
		t.Fatalf("propose: %d %+v", status, resp.Error)
	}
	proposed := decode[mutationView](t, resp.Data).Request
	if proposed.PendingResolution == nil || proposed.PendingResolution.Status != "Resolved" {
		t.Fatalf("pendingResolution %+v", proposed.PendingResolution)
	}
	if proposed.ResolutionRequestStatus == nil || *proposed.ResolutionRequestStatus != "pending_approval" || proposed.Status != "Pending" {
		t.Fatalf("unexpected proposal state %+v", proposed)
	}

	status, resp = call(t, app, http.MethodPost, base+"/resolution", techToken, map[string]string{"status": "NotAbleToFix"})
	if status != http.StatusConflict || resp.Error == nil || resp.Error.Code != "CONFLICT" {
		t.Fatalf("duplicate proposal: %d %+v", status, resp.Error)
	}

	status, resp = call(t, app, http.MethodPost, base+"/resolution/decision", operatorToken, map[string]string{"decision": "approved"})
	if status != http.StatusOK {
		t.Fatalf("approve: %d %+v", status, resp.Error)
	}
	approved := decode[mutationView](t, resp.Data).Request
	if approved.Status != "Done" || approved.PendingResolution != nil {
		t.Fatalf("unexpected approved state %+v", approved)
	}
	if approved.UserApproval == nil || *approved.UserApproval != "approved" {
		t.Fatalf("userApproval %v", approved.UserApproval)
	}

	status, resp = call(t, app, http.MethodDelete, base, leadToken, nil)
	if status != http.StatusForbidden || resp.Error.Code != "UNAUTHORIZED" || resp.Error.Details["action"] != "deleteRequest" {
		t.Fatalf("lead delete: %d %+v", status, resp.Error)
	}

	status, resp = call(t, app, http.MethodDelete, base, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: %d %+v", status, resp.Error)
	}
	deleted := decode[mutationView](t, resp.Data)
	if deleted.RemovedAssignments == nil || *deleted.RemovedAssignments != 2 {
		t.Fatalf("removedAssignments %v", deleted.RemovedAssignments)
	}

	status, resp = call(t, app, http.MethodGet, base, adminToken, nil)
	if status != http.StatusNotFound || resp.Error.Code != "NOT_FOUND" {
		t.Fatalf("get deleted: %d %+v", status, resp.Error)
	}

	status, resp = call(t, app, http.MethodGet, "/notifications?unread=true", operatorToken, nil)
	if status != http.StatusOK {
		t.Fatalf("notifications: %d %+v", status, resp.Error)
	}
	if inbox := decode[[]map[string]any](t, resp.Data); len(inbox) == 0 {
		t.Fatal("operator should have been notified")
	}
}

func TestHTTPErrorShapes(t *testing.T) {
	srv := newTestServer(t)
	app := srv.app

	cases := []struct {
		name   string
		method string
		path   string
		token  func() string
		status int
		code   string
	}{
		{name: "missing token", method: http.MethodGet, path: "/requests", status: http.StatusUnauthorized, code: "UNAUTHENTICATED"},
		{name: "bad login", method: http.MethodPost, path: "/auth/login", status: http.StatusBadRequest, code: "VALIDATION_FAILED"},
		{name: "unknown route", method: http.MethodGet, path: "/nope", status: http.StatusNotFound, code: "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body any
			if tc.method == http.MethodPost {
				body = map[string]string{}
			}
			status, resp := call(t, app, tc.method, tc.path, "", body)
			if status != tc.status || resp.Error == nil || resp.Error.Code != tc.code {
				t.Fatalf("expected %d %s, got %d %+v", tc.status, tc.code, status, resp.Error)
			}
		})
	}
}

func TestHTTPHealth(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv.app, http.MethodGet, "/health/live", "", nil)
	if status != http.StatusOK {
		t.Fatalf("live: %d", status)
	}
	status, _ = call(t, srv.app, http.MethodGet, "/health/ready", "", nil)
	if status != http.StatusOK {
		t.Fatalf("ready with disabled backends: %d", status)
	}
	status, resp := call(t, srv.app, http.MethodGet, "/health/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("metrics: %d", status)
	}
	snap := decode[struct {
		Requests []struct {
			Route string `json:"route"`
		} `json:"requests"`
	}](t, resp.Data)
	if len(snap.Requests) == 0 {
		t.Fatal("expected recorded requests")
	}
}
