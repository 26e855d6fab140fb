package handlers

import (
	"net/http"
	"testing"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

func TestGetSettings_DefaultsToManual(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodGet, "/users/me/settings", "owner-1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	s := decode[domain.OwnerSettings](t, w)
	if s.UserID != "owner-1" || s.AcceptanceMode != domain.ModeManual {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestUpdateSettings_FlipsMode(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodPut, "/users/me/settings", "owner-1", UpdateSettingsRequest{AcceptanceMode: "AUTO"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if s := decode[domain.OwnerSettings](t, w); s.AcceptanceMode != domain.ModeAuto {
		t.Fatalf("unexpected settings: %+v", s)
	}

	// Persisted: the read endpoint reflects the change.
	w = perform(r, http.MethodGet, "/users/me/settings", "owner-1", nil, nil)
	if s := decode[domain.OwnerSettings](t, w); s.AcceptanceMode != domain.ModeAuto {
		t.Fatalf("mode not persisted: %+v", s)
	}

	// And the engine honors it: joins against this owner auto-accept.
	post := createPost(t, r, "owner-1", CreatePostRequest{Title: "Padel doubles"})
	jw := perform(r, http.MethodPost, "/posts/"+post.ID+"/join", "user-1", nil, nil)
	if jw.Code != http.StatusCreated {
		t.Fatalf("join: status %d body %s", jw.Code, jw.Body.String())
	}
	if req := decode[domain.JoinRequest](t, jw); req.Status != domain.StatusAccepted {
		t.Fatalf("expected auto accept, got %q", req.Status)
	}
}

func TestUpdateSettings_Validation(t *testing.T) {
	r := newTestRouter(t, newHandlersDB(t))

	w := perform(r, http.MethodPut, "/users/me/settings", "owner-1", map[string]string{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing mode: status %d", w.Code)
	}

	w = perform(r, http.MethodPut, "/users/me/settings", "owner-1", UpdateSettingsRequest{AcceptanceMode: "whenever"}, nil)
	if w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeBadRequest {
		t.Fatalf("invalid mode: status %d body %s", w.Code, w.Body.String())
	}
}
