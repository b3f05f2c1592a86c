package users

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(repo *fakeRepo) *httptest.Server {
	mux := http.NewServeMux()
	NewService(newTestApp(repo)).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.StatusCode, out
}

func TestCreateUserEndpoint(t *testing.T) {
	srv := newTestServer(&fakeRepo{})
	defer srv.Close()

	status, body := do(t, http.MethodPost, srv.URL+"/users", `{"username":"alice","email":"alice@example.com","password":"password1"}`)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["username"] != "alice" || body["email"] != "alice@example.com" || body["id"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
	for _, key := range []string{"password", "password_hash", "PasswordHash"} {
		if _, ok := body[key]; ok {
			t.Fatalf("response leaks %s: %v", key, body)
		}
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{"duplicate username", `{"username":"alice","email":"x@example.com","password":"password1"}`, http.StatusBadRequest, "Username already exists"},
		{"duplicate email", `{"username":"bob","email":"alice@example.com","password":"password1"}`, http.StatusBadRequest, "Email already exists"},
		{"invalid body", `{"username":"bob"}`, http.StatusUnprocessableEntity, "Invalid request"},
		{"malformed json", `{"username":`, http.StatusBadRequest, "Malformed request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, srv.URL+"/users", tt.body)
			if status != tt.wantStatus || body["detail"] != tt.wantDetail {
				t.Fatalf("got %d %v, expected %d %q", status, body, tt.wantStatus, tt.wantDetail)
			}
		})
	}
}

func TestListUsersEndpoint(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)
	defer srv.Close()

	for _, name := range []string{"a", "b", "c"} {
		body := `{"username":"` + name + `","email":"` + name + `@example.com","password":"password1"}`
		if status, _ := do(t, http.MethodPost, srv.URL+"/users", body); status != http.StatusCreated {
			t.Fatalf("seed %s: status %d", name, status)
		}
	}

	status, body := do(t, http.MethodGet, srv.URL+"/users", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	users, ok := body["users"].([]any)
	if !ok || len(users) != 3 {
		t.Fatalf("unexpected body %v", body)
	}

	status, body = do(t, http.MethodGet, srv.URL+"/users?limit=1&offset=2", "")
	users, _ = body["users"].([]any)
	if status != http.StatusOK || len(users) != 1 || users[0].(map[string]any)["username"] != "c" {
		t.Fatalf("unexpected page %d %v", status, body)
	}

	for _, query := range []string{"limit=ten", "offset=-1", "offset=3000000000", "offset=4294967296"} {
		status, body = do(t, http.MethodGet, srv.URL+"/users?"+query, "")
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("?%s: status = %d, body = %v", query, status, body)
		}
	}
}
