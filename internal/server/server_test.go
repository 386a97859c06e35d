package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookshop/internal/app"
	"bookshop/pkg/domain"
	"bookshop/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemoryStore()
	mem.SaveBook("1", domain.Book{Author: "Jane Doe", Title: "Book One"})
	mem.SaveBook("2", domain.Book{Author: "John Roe", Title: "Book Two"})
	appCore, err := app.New(app.Config{Store: mem})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: appCore}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/register", map[string]string{
		"username": username, "password": password,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, resp.StatusCode)
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/login", map[string]string{
		"username": username, "password": password,
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: missing token in %v", username, body)
	}
	return token
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/register", map[string]string{
		"username": "alice", "password": "pw1",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: status %d, want 201", resp.StatusCode)
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/register", map[string]string{
		"username": "alice", "password": "pw2",
	}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", resp.StatusCode)
	}
	if body["message"] != "Username already exists" {
		t.Fatalf("duplicate register message = %v", body["message"])
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	cases := []map[string]string{
		{"username": "alice"},
		{"password": "pw1"},
		{"username": "   ", "password": "pw1"},
		{},
	}
	for _, body := range cases {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/register", body, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("register %v: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestLoginStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "alice", "pw1")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d, want 401", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/login", map[string]string{
		"username": "alice",
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing password: status %d, want 400", resp.StatusCode)
	}
}

func TestCatalogListingIsPrettyPrinted(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catalog: status %d, want 200", resp.StatusCode)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read catalog body: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "\n    ") {
		t.Fatalf("catalog body is not indented: %q", raw)
	}
	books := map[string]domain.Book{}
	if err := json.Unmarshal(buf.Bytes(), &books); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(books) != 2 || books["1"].Title != "Book One" {
		t.Fatalf("unexpected catalog: %v", books)
	}
}

func TestBookByISBN(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/isbn/1", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("known isbn: status %d, want 200", resp.StatusCode)
	}
	if body["title"] != "Book One" || body["author"] != "Jane Doe" {
		t.Fatalf("unexpected book body: %v", body)
	}
	if _, ok := body["isbn"]; ok {
		t.Fatalf("single-book fetch should not attach isbn: %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/isbn/404", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown isbn: status %d, want 404", resp.StatusCode)
	}
	if body["message"] != "Book not found" {
		t.Fatalf("unknown isbn message = %v", body["message"])
	}
}

func TestSearchByAuthorAndTitle(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/author/JANE%20DOE")
	if err != nil {
		t.Fatalf("author search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("author search: status %d, want 200", resp.StatusCode)
	}
	var matches []domain.Book
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		t.Fatalf("decode author matches: %v", err)
	}
	if len(matches) != 1 || matches[0].ISBN != "1" {
		t.Fatalf("unexpected author matches: %+v", matches)
	}

	// Prefix must not match.
	resp2, _ := doJSON(t, http.MethodGet, srv.URL+"/author/Jane", nil, "")
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("author prefix: status %d, want 404", resp2.StatusCode)
	}

	resp3, _ := doJSON(t, http.MethodGet, srv.URL+"/title/book%20two", nil, "")
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("title search: status %d, want 200", resp3.StatusCode)
	}
	resp4, _ := doJSON(t, http.MethodGet, srv.URL+"/title/Book", nil, "")
	if resp4.StatusCode != http.StatusNotFound {
		t.Fatalf("title prefix: status %d, want 404", resp4.StatusCode)
	}
}

func TestReviewEndpointLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "pw1")

	// Public review map starts empty.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/review/1", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review map: status %d, want 200", resp.StatusCode)
	}
	if len(body) != 0 {
		t.Fatalf("expected empty review map, got %v", body)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/review/404", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("review map unknown isbn: status %d, want 404", resp.StatusCode)
	}

	// Unauthenticated upsert.
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Great", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated upsert: status %d, want 401", resp.StatusCode)
	}

	// Unknown book reports 404 even before auth.
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/auth/review/404?review=Great", nil, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("upsert unknown isbn: status %d, want 404", resp.StatusCode)
	}

	// Blank review text.
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/auth/review/1", nil, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing review text: status %d, want 400", resp.StatusCode)
	}

	// Upsert, then overwrite by the same user.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Great", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert: status %d, want 200", resp.StatusCode)
	}
	reviews, _ := body["reviews"].(map[string]any)
	if reviews["alice"] != "Great" {
		t.Fatalf("reviews after upsert = %v", body)
	}
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Even+better", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overwrite: status %d, want 200", resp.StatusCode)
	}
	reviews, _ = body["reviews"].(map[string]any)
	if len(reviews) != 1 || reviews["alice"] != "Even better" {
		t.Fatalf("reviews after overwrite = %v", reviews)
	}

	// Delete own review; second delete is a 404.
	resp, body = doJSON(t, http.MethodDelete, srv.URL+"/auth/review/1", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d, want 200", resp.StatusCode)
	}
	reviews, _ = body["reviews"].(map[string]any)
	if len(reviews) != 0 {
		t.Fatalf("reviews after delete = %v", reviews)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/auth/review/1", nil, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete without prior review: status %d, want 404", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/auth/review/1", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated delete: status %d, want 401", resp.StatusCode)
	}
}

func TestDeleteReviewTouchesOnlyCallersEntry(t *testing.T) {
	srv := newTestServer(t)
	aliceToken := registerAndLogin(t, srv, "alice", "pw1")
	bobToken := registerAndLogin(t, srv, "bob", "pw2")

	if resp, _ := doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Great", nil, aliceToken); resp.StatusCode != http.StatusOK {
		t.Fatalf("alice upsert failed: %d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Fine", nil, bobToken); resp.StatusCode != http.StatusOK {
		t.Fatalf("bob upsert failed: %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/auth/review/1", nil, aliceToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("alice delete: status %d, want 200", resp.StatusCode)
	}
	reviews, _ := body["reviews"].(map[string]any)
	if _, ok := reviews["alice"]; ok {
		t.Fatalf("alice entry not removed: %v", reviews)
	}
	if reviews["bob"] != "Fine" {
		t.Fatalf("bob entry lost: %v", reviews)
	}
}

func TestForgedTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "alice", "pw1")

	other := store.NewJWTSessionStore("some-other-secret", 0)
	forged, err := other.NewSession("alice")
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Great", nil, forged)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged token: status %d, want 401", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/auth/review/1?review=Great", nil, "not.a.token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", resp.StatusCode)
	}
}
