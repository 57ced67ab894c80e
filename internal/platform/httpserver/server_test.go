package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applicationservice "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service"
	reviewertokenservice "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service"
	tokenports "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"
	authorization "github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service"
)

func newTestServer(seedUsers ...tokenports.UserProfile) *Server {
	policy := authorization.Policy{}
	return New(
		applicationservice.NewInMemoryModule(policy, nil),
		reviewertokenservice.NewInMemoryModule(seedUsers, policy, nil),
		nil,
		":0",
	)
}

func doJSON(t *testing.T, server *Server, method string, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response envelope: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func studentHeaders(id string) map[string]string {
	return map[string]string{"X-User-Id": id, "X-User-Role": "student"}
}

func createBody() map[string]any {
	return map[string]any{
		"category":    "intellectual",
		"sub_type":    "competition",
		"title":       "Provincial contest",
		"occurred_at": "2026-03-10",
		"attachments": []map[string]string{{"file_id": "file-1"}},
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	server := newTestServer()

	rec := doJSON(t, server, http.MethodGet, "/api/v1/applications", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["code"].(float64) != 1003 {
		t.Fatalf("expected business code 1003, got %v", payload["code"])
	}
	if payload["request_id"] == "" {
		t.Fatal("error envelope must carry a request id")
	}
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	server := newTestServer()
	headers := studentHeaders("student-1")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/applications", headers, createBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeEnvelope(t, rec)
	if payload["code"].(float64) != 0 || payload["message"] != "ok" {
		t.Fatalf("unexpected success envelope: %v", payload)
	}
	data := payload["data"].(map[string]any)
	id := data["id"].(string)
	if data["version"].(float64) != 1 {
		t.Fatalf("expected version 1, got %v", data["version"])
	}

	update := createBody()
	update["title"] = "Renamed contest"
	update["version"] = 1
	rec = doJSON(t, server, http.MethodPut, "/api/v1/applications/"+id, headers, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}

	// Replaying with the stale version must map to 409 / 1007.
	rec = doJSON(t, server, http.MethodPut, "/api/v1/applications/"+id, headers, update)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update returned %d, want 409", rec.Code)
	}
	payload = decodeEnvelope(t, rec)
	if payload["code"].(float64) != 1007 {
		t.Fatalf("expected business code 1007, got %v", payload["code"])
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/applications/"+id, studentHeaders("student-2"), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign detail view returned %d, want 403", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/applications/missing-id", headers, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing record returned %d, want 404", rec.Code)
	}
	payload = decodeEnvelope(t, rec)
	if payload["code"].(float64) != 1002 {
		t.Fatalf("expected business code 1002, got %v", payload["code"])
	}
}

func TestCreateValidationMapsTo1001(t *testing.T) {
	server := newTestServer()

	body := createBody()
	delete(body, "attachments")
	rec := doJSON(t, server, http.MethodPost, "/api/v1/applications", studentHeaders("student-1"), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing attachments, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["code"].(float64) != 1001 {
		t.Fatalf("expected business code 1001, got %v", payload["code"])
	}
}

func TestTokenFlowOverHTTP(t *testing.T) {
	server := newTestServer(tokenports.UserProfile{UserID: "student-1", Role: "student", ClassID: 101})
	teacher := map[string]string{"X-User-Id": "teacher-1", "X-User-Role": "teacher"}

	rec := doJSON(t, server, http.MethodPost, "/api/v1/tokens", teacher, map[string]any{
		"class_ids":  []int{101},
		"expired_at": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("issue returned %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	secret := data["token"].(string)
	tokenID := data["id"].(string)

	student := map[string]string{"X-User-Id": "student-1", "X-User-Role": "student", "X-Class-Id": "101"}
	rec = doJSON(t, server, http.MethodPost, "/api/v1/tokens/activate", student, map[string]any{"token": secret})
	if rec.Code != http.StatusOK {
		t.Fatalf("activate returned %d: %s", rec.Code, rec.Body.String())
	}

	// Second activation maps to 409 / 1007.
	rec = doJSON(t, server, http.MethodPost, "/api/v1/tokens/activate", student, map[string]any{"token": secret})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second activate returned %d, want 409", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["code"].(float64) != 1007 {
		t.Fatalf("expected business code 1007, got %v", payload["code"])
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/tokens/"+tokenID+"/revoke", teacher, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke returned %d: %s", rec.Code, rec.Body.String())
	}

	// Students cannot list tokens.
	rec = doJSON(t, server, http.MethodGet, "/api/v1/tokens", student, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student token list returned %d, want 403", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	server := newTestServer()

	headers := studentHeaders("student-1")
	headers["X-Request-Id"] = "req-42"
	rec := doJSON(t, server, http.MethodGet, "/api/v1/applications", headers, nil)
	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected inbound request id echoed, got %q", got)
	}
	payload := decodeEnvelope(t, rec)
	if payload["request_id"] != "req-42" {
		t.Fatalf("expected request id in envelope, got %v", payload["request_id"])
	}
}
