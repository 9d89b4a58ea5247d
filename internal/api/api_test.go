package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/api"
	"github.com/preschool-cms-api/internal/config"
	"github.com/preschool-cms-api/internal/mocks"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "let-me-in"
)

type testEnv struct {
	router   *gin.Engine
	services *service.Services
	store    *mocks.MockStore
	auth     *mocks.MockAuthProvider
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := mocks.NewMockStore()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080", SnapshotWait: 2 * time.Second, AllowedOrigin: "*"},
	}
	log := zerolog.Nop()

	services := service.NewServices(repository.New(st), cfg, log)
	if err := services.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		services.Stop()
		st.Close()
	})

	provider := mocks.NewMockAuthProvider(adminEmail, adminPassword)
	return &testEnv{
		router:   api.NewRouter(services, provider, cfg, log),
		services: services,
		store:    st,
		auth:     provider,
	}
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	w := e.do("POST", "/admin/login", map[string]string{"email": adminEmail, "password": adminPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Token
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("Invalid data payload: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "preschool-cms-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestBlogPost_UnpublishedRedirects(t *testing.T) {
	env := setupTestRouter(t)
	ctx := context.Background()

	draft := env.services.Blog.Create(ctx, models.BlogPostCreate{Title: "Draft", Content: "c", Excerpt: "e", Author: "a"})
	live := env.services.Blog.Create(ctx, models.BlogPostCreate{Title: "Live", Content: "c", Excerpt: "e", Author: "a", Published: true})
	corrupt, err := env.store.Create(ctx, models.CollectionBlogPosts, map[string]any{"title": 5, "published": true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, id := range []string{draft.Record.ID, "does-not-exist", corrupt} {
		w := env.do("GET", "/blog/"+id, nil, "")
		if w.Code != http.StatusFound {
			t.Errorf("Expected 302 for %s, got %d", id, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/blog" {
			t.Errorf("Expected redirect to /blog, got %q", loc)
		}
	}

	w := env.do("GET", "/blog/"+live.Record.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for published post, got %d", w.Code)
	}
	var post models.BlogPost
	decodeData(t, w, &post)
	if post.Title != "Live" {
		t.Errorf("Expected Live post, got %+v", post)
	}

	waitFor(t, func() bool {
		var posts []models.BlogPost
		decodeData(t, env.do("GET", "/blog", nil, ""), &posts)
		return len(posts) == 1 && posts[0].ID == live.Record.ID
	})
}

func TestContact_Validation(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/contact", map[string]string{"email": "parent@example.com", "message": "Hello"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "name is required") {
		t.Errorf("Expected field error, got %s", w.Body.String())
	}
	if env.store.Writes() != 0 {
		t.Errorf("Expected no writes, got %d", env.store.Writes())
	}

	w = env.do("POST", "/contact", map[string]string{"name": "Parent", "email": "parent@example.com"}, "")
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do("POST", "/contact", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty body, got %d", w.Code)
	}
}

func TestContact_StoreFailure(t *testing.T) {
	env := setupTestRouter(t)
	env.store.Fail(context.DeadlineExceeded)

	w := env.do("POST", "/contact", map[string]string{"name": "Parent", "email": "parent@example.com"}, "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", w.Code)
	}
}

func TestEnrollment_ClientStatusIgnored(t *testing.T) {
	env := setupTestRouter(t)

	body := map[string]string{
		"parentName":  "Kofi Mensah",
		"parentEmail": "kofi@example.com",
		"parentPhone": "555-0100",
		"childName":   "Ama",
		"childAge":    "4",
		"program":     "prekindergarten",
		"startDate":   "2024-09-01",
		"status":      "approved",
	}
	w := env.do("POST", "/enrollments", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var enrollment models.Enrollment
	decodeData(t, w, &enrollment)
	if enrollment.Status != models.EnrollmentPending {
		t.Errorf("Expected pending status, got %s", enrollment.Status)
	}

	token := env.login(t)
	w = env.do("POST", "/admin/enrollments/"+enrollment.ID+"/approve", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 approving, got %d", w.Code)
	}
	var view models.EnrollmentView
	decodeData(t, w, &view)
	if view.Status != models.EnrollmentApproved || len(view.Actions) != 1 || view.Actions[0] != "delete" {
		t.Errorf("Expected approved view with delete only, got %+v", view)
	}

	w = env.do("POST", "/admin/enrollments/"+enrollment.ID+"/reject", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 rejecting an approved enrollment, got %d", w.Code)
	}
}

func TestAdmin_RequiresSession(t *testing.T) {
	env := setupTestRouter(t)

	for _, path := range []string{"/admin/dashboard", "/admin/blog-posts", "/admin/stream/blog-posts", "/admin/export/enrollments"} {
		if w := env.do("GET", path, nil, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %s, got %d", path, w.Code)
		}
	}
	if w := env.do("GET", "/admin/dashboard", nil, "forged"); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for forged token, got %d", w.Code)
	}
}

func TestAdmin_LoginLogout(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/admin/login", map[string]string{"email": adminEmail, "password": "wrong"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad password, got %d", w.Code)
	}

	w = env.do("POST", "/admin/login", map[string]string{"email": adminEmail, "password": adminPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token == "" || resp.User.Email != adminEmail {
		t.Errorf("Unexpected login response: %s", w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "admin_session" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
		t.Fatalf("Expected http-only session cookie, got %+v", cookie)
	}

	// the cookie alone authenticates
	req := httptest.NewRequest("GET", "/admin/session", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), adminEmail) {
		t.Errorf("Expected cookie session to work, got %d %s", rec.Code, rec.Body.String())
	}

	if w := env.do("POST", "/admin/logout", nil, resp.Token); w.Code != http.StatusOK {
		t.Errorf("Expected 200 on logout, got %d", w.Code)
	}
	if w := env.do("GET", "/admin/session", nil, resp.Token); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", w.Code)
	}
}

func TestAdmin_DeleteRequiresConfirmation(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t)

	w := env.do("POST", "/admin/gallery-items", map[string]string{"title": "Sandbox", "image": "/img/sandbox.jpg"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var item models.GalleryItem
	decodeData(t, w, &item)

	w = env.do("DELETE", "/admin/gallery-items/"+item.ID, nil, token)
	if w.Code != http.StatusPreconditionRequired {
		t.Errorf("Expected 428, got %d", w.Code)
	}
	if env.store.DeleteCalls != 0 {
		t.Errorf("Expected no delete call, got %d", env.store.DeleteCalls)
	}

	w = env.do("DELETE", "/admin/gallery-items/"+item.ID+"?confirm=true", nil, token)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	w = env.do("DELETE", "/admin/gallery-items/"+item.ID+"?confirm=true", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting twice, got %d", w.Code)
	}

	waitFor(t, func() bool {
		var items []models.GalleryItem
		decodeData(t, env.do("GET", "/gallery", nil, ""), &items)
		return len(items) == len(models.DefaultGalleryItems) && items[0].ID == "default-1"
	})
}

func TestAdmin_BlogToggle(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t)

	w := env.do("POST", "/admin/blog-posts", map[string]interface{}{
		"title": "Pajama Day", "content": "Friday!", "excerpt": "Cozy", "author": "Ms. Lee",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var post models.BlogPost
	decodeData(t, w, &post)
	if post.Published {
		t.Error("Expected new post to default to unpublished")
	}

	for _, want := range []bool{true, false} {
		w = env.do("POST", "/admin/blog-posts/"+post.ID+"/toggle-published", nil, token)
		var toggled models.BlogPost
		decodeData(t, w, &toggled)
		if toggled.Published != want {
			t.Errorf("Expected published=%v, got %v", want, toggled.Published)
		}
	}

	w = env.do("PATCH", "/admin/blog-posts/"+post.ID, map[string]string{"title": ""}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank title, got %d", w.Code)
	}
}

func TestAdmin_Dashboard(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t)

	w := env.do("GET", "/admin/dashboard", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var stats models.DashboardStats
	decodeData(t, w, &stats)
	if stats.AdminEmail != adminEmail {
		t.Errorf("Expected admin email on dashboard, got %q", stats.AdminEmail)
	}
}

func TestSchedule_GroupedByDay(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t)

	for _, day := range []string{"Friday", "Monday"} {
		w := env.do("POST", "/admin/daily-schedule", map[string]string{
			"day": day, "time": "9:00 AM", "activity": "Story Time", "ageGroup": "All Ages",
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	waitFor(t, func() bool {
		var days []models.ScheduleDay
		decodeData(t, env.do("GET", "/schedule", nil, ""), &days)
		return len(days) == 2 && days[0].Day == "Monday" && days[1].Day == "Friday"
	})
}

func TestSchedule_UpdateAndDelete(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t)

	w := env.do("POST", "/admin/daily-schedule", map[string]string{
		"day": "Thursday", "time": "2:00 PM", "activity": "Nap Time", "description": "Quiet rest", "ageGroup": "2-3 Years",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.ScheduleItem
	decodeData(t, w, &created)
	path := "/admin/daily-schedule/" + created.ID

	w = env.do("PATCH", path, map[string]string{"activity": "Rest Time"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.ScheduleItem
	decodeData(t, w, &updated)
	if updated.Activity != "Rest Time" || updated.Day != "Thursday" || updated.Time != "2:00 PM" || updated.Description != "Quiet rest" {
		t.Errorf("Expected only activity to change, got %+v", updated)
	}

	if w := env.do("PATCH", path, map[string]string{}, token); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty patch, got %d", w.Code)
	}
	w = env.do("PATCH", path, map[string]string{"day": "Sunday"}, token)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"field":"day"`) {
		t.Errorf("Expected 400 with day error, got %d: %s", w.Code, w.Body.String())
	}
	if w := env.do("PATCH", "/admin/daily-schedule/missing", map[string]string{"time": "3:00 PM"}, token); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing entry, got %d", w.Code)
	}

	if w := env.do("DELETE", path, nil, token); w.Code != http.StatusPreconditionRequired {
		t.Errorf("Expected 428 without confirmation, got %d", w.Code)
	}
	if w := env.do("DELETE", path+"?confirm=true", nil, token); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for confirmed delete, got %d", w.Code)
	}
	waitFor(t, func() bool {
		var days []models.ScheduleDay
		decodeData(t, env.do("GET", "/schedule", nil, ""), &days)
		return len(days) == 0
	})
}

func TestHome_Payload(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
		Gallery []models.GalleryItem `json:"gallery"`
		Loading bool                 `json:"loading"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Sections) != 6 || resp.Sections[0].ID != "hero" || resp.Sections[5].ID != "contact" {
		t.Errorf("Unexpected sections: %+v", resp.Sections)
	}
	if len(resp.Gallery) != len(models.DefaultGalleryItems) {
		t.Errorf("Expected fallback gallery, got %d items", len(resp.Gallery))
	}
	if resp.Loading {
		t.Error("Expected home payload to be loaded")
	}
}

func TestExport_Errors(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t)

	if w := env.do("GET", "/admin/export/users", nil, token); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown collection, got %d", w.Code)
	}
	if w := env.do("GET", "/admin/export/blog-posts?format=csv", nil, token); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for csv blog export, got %d", w.Code)
	}
	w := env.do("GET", "/admin/export/contact-messages?format=csv", nil, token)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "id,name,email") {
		t.Errorf("Expected csv export, got %d %s", w.Code, w.Body.String())
	}
}

func TestStream_PublicCollections(t *testing.T) {
	env := setupTestRouter(t)

	if w := env.do("GET", "/stream/contact-messages", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for private collection, got %d", w.Code)
	}

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/stream/gallery-items", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Expected event stream, got %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimPrefix(line, "event:")
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
			break
		}
	}
	if event != "snapshot" {
		t.Errorf("Expected snapshot event, got %q", event)
	}
	if !strings.Contains(data, "default-1") || !strings.Contains(data, `"collection":"gallery-items"`) {
		t.Errorf("Expected fallback gallery snapshot, got %s", data)
	}
}
