package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/services"
)

// ---------- test DB + wiring ----------

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.Post{}, &domain.Invite{}, &domain.JoinRequest{},
		&domain.OwnerSettings{}, &domain.Notification{},
		&domain.OutboxEntry{}, &domain.Idempotency{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestRouter wires real services over db into a bare gin engine with the
// engine's route shapes. No middleware; handlers read X-User-ID directly.
func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settingsSvc := services.NewSettingsService(db)
	joinSvc := services.NewJoinService(db, settingsSvc, nil)
	postSvc := services.NewPostService(db)
	notifSvc := services.NewNotificationService(db, nil)
	h := New(joinSvc, postSvc, notifSvc, settingsSvc)

	r := gin.New()
	r.POST("/posts", h.CreatePost)
	r.GET("/posts/:id", h.GetPost)
	r.POST("/posts/:id/join", h.SubmitJoin)
	r.GET("/posts/:id/requests", h.ListPostRequests)
	r.POST("/requests/:id/resolve", h.ResolveRequest)
	r.GET("/requests", h.ListMyRequests)
	r.GET("/notifications", h.ListNotifications)
	r.PUT("/notifications/:id/read", h.MarkNotificationRead)
	r.GET("/users/me/settings", h.GetSettings)
	r.PUT("/users/me/settings", h.UpdateSettings)
	return r
}

func perform(r *gin.Engine, method, path, user string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}

func createPost(t *testing.T, r *gin.Engine, owner string, body CreatePostRequest) domain.Post {
	t.Helper()
	w := perform(r, http.MethodPost, "/posts", owner, body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: status %d body %s", w.Code, w.Body.String())
	}
	return decode[domain.Post](t, w)
}

// ---------- SubmitJoin ----------

func TestSubmitJoin_InvalidUUID(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodPost, "/posts/not-a-uuid/join", "user-1", nil, nil)
	if w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeBadRequest {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestSubmitJoin_PostNotFound(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodPost, "/posts/"+uuid.NewString()+"/join", "user-1", nil, nil)
	if w.Code != http.StatusNotFound || errCode(t, w) != ErrCodeNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestSubmitJoin_ManualPending(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})

	w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	req := decode[domain.JoinRequest](t, w)
	if req.Status != domain.StatusPending || req.RequesterID != "user-1" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestSubmitJoin_SelfJoin(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})

	w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "owner-1", nil, nil)
	if w.Code != http.StatusForbidden || errCode(t, w) != ErrCodeSelfJoin {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestSubmitJoin_Duplicate(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})

	if w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil); w.Code != http.StatusCreated {
		t.Fatalf("first join: %d", w.Code)
	}
	w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil)
	if w.Code != http.StatusConflict || errCode(t, w) != ErrCodeDuplicateRequest {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestSubmitJoin_IdempotentReplay(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	first := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("first: status %d body %s", first.Code, first.Body.String())
	}
	orig := decode[domain.JoinRequest](t, first)

	second := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("replay: status %d body %s", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("replay marker header missing")
	}
	if replay := decode[domain.JoinRequest](t, second); replay.ID != orig.ID {
		t.Fatalf("replay returned a different request: %q vs %q", replay.ID, orig.ID)
	}

	// A different key is a genuine retry and trips the duplicate guard.
	other := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil,
		map[string]string{"Idempotency-Key": uuid.NewString()})
	if other.Code != http.StatusConflict {
		t.Fatalf("fresh key: status %d body %s", other.Code, other.Body.String())
	}
}

// ---------- ResolveRequest ----------

func TestResolveRequest_Validation(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodPost, "/requests/not-a-uuid/resolve", "owner-1", ResolveRequestBody{Action: "accept"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad uuid: status %d", w.Code)
	}

	w = perform(r, http.MethodPost, "/requests/"+uuid.NewString()+"/resolve", "owner-1", map[string]string{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing action: status %d", w.Code)
	}

	w = perform(r, http.MethodPost, "/requests/"+uuid.NewString()+"/resolve", "owner-1", ResolveRequestBody{Action: "maybe"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid action: status %d", w.Code)
	}
}

func TestResolveRequest_AcceptFlow(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles", Capacity: intPtrH(2)})

	w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil)
	req := decode[domain.JoinRequest](t, w)

	// Strangers cannot resolve.
	w = perform(r, http.MethodPost, "/requests/"+req.ID+"/resolve", "intruder", ResolveRequestBody{Action: "accept"}, nil)
	if w.Code != http.StatusForbidden || errCode(t, w) != ErrCodeForbidden {
		t.Fatalf("intruder: status %d body %s", w.Code, w.Body.String())
	}

	w = perform(r, http.MethodPost, "/requests/"+req.ID+"/resolve", "owner-1", ResolveRequestBody{Action: "Accept"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", w.Code, w.Body.String())
	}
	if got := decode[domain.JoinRequest](t, w); got.Status != domain.StatusAccepted {
		t.Fatalf("unexpected status %q", got.Status)
	}

	// A second resolution is a conflict.
	w = perform(r, http.MethodPost, "/requests/"+req.ID+"/resolve", "owner-1", ResolveRequestBody{Action: "deny"}, nil)
	if w.Code != http.StatusConflict || errCode(t, w) != ErrCodeAlreadyResolved {
		t.Fatalf("re-resolve: status %d body %s", w.Code, w.Body.String())
	}
}

func TestResolveRequest_CapacityExceeded(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles", Capacity: intPtrH(1)})

	first := decode[domain.JoinRequest](t, perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil))
	second := decode[domain.JoinRequest](t, perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-2", nil, nil))

	if w := perform(r, http.MethodPost, "/requests/"+first.ID+"/resolve", "owner-1", ResolveRequestBody{Action: "accept"}, nil); w.Code != http.StatusOK {
		t.Fatalf("first accept: status %d", w.Code)
	}
	w := perform(r, http.MethodPost, "/requests/"+second.ID+"/resolve", "owner-1", ResolveRequestBody{Action: "accept"}, nil)
	if w.Code != http.StatusConflict || errCode(t, w) != ErrCodeCapacityExceeded {
		t.Fatalf("full accept: status %d body %s", w.Code, w.Body.String())
	}
}

func TestResolveRequest_NotFound(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodPost, "/requests/"+uuid.NewString()+"/resolve", "owner-1", ResolveRequestBody{Action: "deny"}, nil)
	if w.Code != http.StatusNotFound || errCode(t, w) != ErrCodeNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

// ---------- listings ----------

func TestListPostRequests_OwnerOnly(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})

	for i := 0; i < 3; i++ {
		u := fmt.Sprintf("user-%d", i)
		if w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", u, nil, nil); w.Code != http.StatusCreated {
			t.Fatalf("join %s: %d", u, w.Code)
		}
	}

	w := perform(r, http.MethodGet, "/posts/"+post.ID+"/requests?page=1&page_size=2", "owner-1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	page := decode[ListRequestsResponse](t, w)
	if page.Pagination.Total != 3 || len(page.Requests) != 2 || !page.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v", page.Pagination)
	}

	w = perform(r, http.MethodGet, "/posts/"+post.ID+"/requests", "user-0", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger: status %d", w.Code)
	}
}

func TestListMyRequests(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})

	if w := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil); w.Code != http.StatusCreated {
		t.Fatalf("join: %d", w.Code)
	}

	w := perform(r, http.MethodGet, "/requests", "user-1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	page := decode[ListRequestsResponse](t, w)
	if page.Pagination.Total != 1 || len(page.Requests) != 1 {
		t.Fatalf("unexpected page: %+v", page.Pagination)
	}
	if page.Requests[0].RequesterID != "user-1" {
		t.Fatalf("unexpected requester %q", page.Requests[0].RequesterID)
	}
}

func intPtrH(n int) *int { return &n }
