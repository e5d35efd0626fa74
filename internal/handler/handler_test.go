package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notegen/notegen/internal/auth"
	"github.com/notegen/notegen/internal/model"
	"github.com/notegen/notegen/internal/service"
)

type tokenTable map[string]string

func (tt tokenTable) Verify(token string) (*model.AuthContext, error) {
	uid, ok := tt[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &model.AuthContext{UserID: uid, Email: uid + "@example.com"}, nil
}

type stubNotes struct {
	submit     func(userID string, body []byte) (*model.Note, error)
	status     func(userID, noteID string) (model.NoteView, error)
	submitCall int
}

func (s *stubNotes) Submit(_ context.Context, userID string, body []byte) (*model.Note, error) {
	s.submitCall++
	return s.submit(userID, body)
}

func (s *stubNotes) Status(_ context.Context, userID, noteID string) (model.NoteView, error) {
	return s.status(userID, noteID)
}

type stubProfiles struct {
	err    error
	caller *model.AuthContext
	uid    string
}

func (s *stubProfiles) Create(_ context.Context, caller *model.AuthContext, uid string) (*model.Profile, error) {
	s.caller, s.uid = caller, uid
	if s.err != nil {
		return nil, s.err
	}
	return &model.Profile{UserID: uid}, nil
}

func (s *stubProfiles) Cleanup(_ context.Context, caller *model.AuthContext, uid string) (int, error) {
	s.caller, s.uid = caller, uid
	return 3, s.err
}

func newTestRouter(notes *stubNotes, profiles *stubProfiles) http.Handler {
	logger := discardLogger()
	return NewRouter(RouterConfig{
		Logger:             logger,
		Health:             NewHealthHandler(nil, nil, logger),
		Notes:              NewNoteHandler(notes, logger),
		Profiles:           NewProfileHandler(profiles, logger),
		Metrics:            http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics\n")) }),
		Verifier:           tokenTable{"token-a": "user-a", "token-b": "user-b"},
		CORSAllowedOrigins: []string{"*"},
		MaxRequestBodySize: 1 << 20,
	})
}

func do(t *testing.T, h http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func admitted(userID string, _ []byte) (*model.Note, error) {
	return &model.Note{ID: "01J0000000000000000000NOTE", UserID: userID, Status: model.NoteStatusPending}, nil
}

func TestGenerateNote_Admitted(t *testing.T) {
	var gotUser, gotBody string
	notes := &stubNotes{submit: func(userID string, body []byte) (*model.Note, error) {
		gotUser, gotBody = userID, string(body)
		return admitted(userID, body)
	}}
	h := newTestRouter(notes, &stubProfiles{})

	rec, out := do(t, h, http.MethodPost, "/v1/generateNote", "token-a", `{"prompt":"p","options":{"style":"short"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "01J0000000000000000000NOTE", out["noteId"])
	assert.Equal(t, "Note generation request received", out["message"])
	assert.Equal(t, "user-a", gotUser)
	assert.JSONEq(t, `{"prompt":"p","options":{"style":"short"}}`, gotBody)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerateNote_QuotaExceeded(t *testing.T) {
	nyc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	resetAt := time.Date(2026, 10, 19, 0, 0, 0, 0, nyc)

	notes := &stubNotes{submit: func(string, []byte) (*model.Note, error) {
		return nil, &service.QuotaExceededError{Limit: 60, ResetAt: resetAt}
	}}
	h := newTestRouter(notes, &stubProfiles{})

	rec, out := do(t, h, http.MethodPost, "/v1/generateNote", "token-a", `{"prompt":"p","options":{"a":1}}`)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", out["error"])
	assert.Equal(t, "QUOTA_EXCEEDED", out["code"])
	assert.EqualValues(t, 60, out["limit"])
	assert.Equal(t, "2026-10-19T04:00:00.000Z", out["resetTime"])
}

func TestGenerateNote_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		token      string
		err        error
		wantStatus int
		wantError  string
		wantSubmit bool
	}{
		{"unauthenticated", http.MethodPost, "", nil, http.StatusUnauthorized, "Unauthorized", false},
		{"bad token", http.MethodPost, "forged", nil, http.StatusUnauthorized, "Unauthorized", false},
		{"wrong verb before auth", http.MethodGet, "", nil, http.StatusMethodNotAllowed, "Method not allowed", false},
		{"wrong verb with token", http.MethodPut, "token-a", nil, http.StatusMethodNotAllowed, "Method not allowed", false},
		{"invalid body", http.MethodPost, "token-a", &service.ValidationError{Message: "Missing required fields", Detail: "prompt: required"}, http.StatusBadRequest, "Missing required fields", true},
		{"store failure", http.MethodPost, "token-a", errors.New("pq: connection reset by peer"), http.StatusInternalServerError, "Internal server error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &stubNotes{submit: func(userID string, body []byte) (*model.Note, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return admitted(userID, body)
			}}
			h := newTestRouter(notes, &stubProfiles{})

			rec, out := do(t, h, tt.method, "/v1/generateNote", tt.token, `{"prompt":"p"}`)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, out["error"])
			assert.Equal(t, tt.wantSubmit, notes.submitCall > 0)
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestPreflight_DoesNotTouchServices(t *testing.T) {
	notes := &stubNotes{}
	h := newTestRouter(notes, &stubProfiles{})

	tests := []struct {
		target      string
		wantMethods string
	}{
		{"/v1/generateNote", "GET, POST"},
		{"/v1/getNoteStatus", "GET"},
		{"/v1/createUserProfile", "POST"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, _ := do(t, h, http.MethodOptions, tt.target, "", "")

			require.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Equal(t, tt.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
	assert.Zero(t, notes.submitCall)
}

func TestGetNoteStatus(t *testing.T) {
	content := "generated text"
	failure := "model timeout"

	tests := []struct {
		name        string
		target      string
		token       string
		view        model.NoteView
		err         error
		wantStatus  int
		wantBody    map[string]any
		wantMissing []string
	}{
		{
			name:       "missing note id before auth",
			target:     "/v1/getNoteStatus",
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error": "Missing note ID", "code": "INVALID_REQUEST"},
		},
		{
			name:       "unauthenticated",
			target:     "/v1/getNoteStatus?noteId=n1",
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"error": "Unauthorized", "code": "UNAUTHORIZED"},
		},
		{
			name:        "pending",
			target:      "/v1/getNoteStatus?noteId=n1",
			token:       "token-a",
			view:        model.NoteView{Status: model.NoteStatusPending},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]any{"status": "pending"},
			wantMissing: []string{"content", "error"},
		},
		{
			name:        "done",
			target:      "/v1/getNoteStatus?noteId=n1",
			token:       "token-a",
			view:        model.NoteView{Status: model.NoteStatusDone, Content: &content},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]any{"status": "done", "content": content},
			wantMissing: []string{"error"},
		},
		{
			name:        "error",
			target:      "/v1/getNoteStatus?noteId=n1",
			token:       "token-a",
			view:        model.NoteView{Status: model.NoteStatusError, Error: &failure},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]any{"status": "error", "error": failure},
			wantMissing: []string{"content"},
		},
		{
			name:       "not found",
			target:     "/v1/getNoteStatus?noteId=missing",
			token:      "token-a",
			err:        service.ErrNoteNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"error": "Note not found", "code": "NOT_FOUND"},
		},
		{
			name:       "other owner",
			target:     "/v1/getNoteStatus?noteId=n1",
			token:      "token-b",
			err:        service.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantBody:   map[string]any{"error": "Forbidden", "code": "FORBIDDEN"},
		},
		{
			name:       "internal",
			target:     "/v1/getNoteStatus?noteId=n1",
			token:      "token-a",
			err:        errors.New("timeout: dial tcp 10.0.0.5:5432"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "Internal server error", "code": "INTERNAL_ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &stubNotes{status: func(userID, noteID string) (model.NoteView, error) {
				return tt.view, tt.err
			}}
			h := newTestRouter(notes, &stubProfiles{})

			rec, out := do(t, h, http.MethodGet, tt.target, tt.token, "")

			require.Equal(t, tt.wantStatus, rec.Code)
			for k, v := range tt.wantBody {
				assert.Equal(t, v, out[k], k)
			}
			for _, k := range tt.wantMissing {
				assert.NotContains(t, out, k)
			}
		})
	}
}

func TestGetNoteStatus_PassesCallerAndID(t *testing.T) {
	var gotUser, gotNote string
	notes := &stubNotes{status: func(userID, noteID string) (model.NoteView, error) {
		gotUser, gotNote = userID, noteID
		return model.NoteView{Status: model.NoteStatusPending}, nil
	}}
	h := newTestRouter(notes, &stubProfiles{})

	rec, _ := do(t, h, http.MethodGet, "/v1/getNoteStatus?noteId=01HX", "token-b", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-b", gotUser)
	assert.Equal(t, "01HX", gotNote)
}

func TestProfileEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		token      string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"create", "/v1/createUserProfile", "token-a", `{"uid":"user-a"}`, nil, http.StatusOK, ""},
		{"cleanup", "/v1/cleanupUserData", "token-a", `{"uid":"user-a"}`, nil, http.StatusOK, ""},
		{"create unauthenticated", "/v1/createUserProfile", "", `{"uid":"user-a"}`, nil, http.StatusUnauthorized, "Unauthorized"},
		{"create malformed", "/v1/createUserProfile", "token-a", `{"uid":`, nil, http.StatusBadRequest, "Invalid request body"},
		{"create missing uid", "/v1/createUserProfile", "token-a", `{}`, &service.ValidationError{Message: "Missing uid"}, http.StatusBadRequest, "Missing uid"},
		{"cleanup other account", "/v1/cleanupUserData", "token-a", `{"uid":"user-b"}`, service.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"create store failure", "/v1/createUserProfile", "token-a", `{"uid":"user-a"}`, errors.New("boom"), http.StatusInternalServerError, "Error creating user profile"},
		{"cleanup store failure", "/v1/cleanupUserData", "token-a", `{"uid":"user-a"}`, errors.New("boom"), http.StatusInternalServerError, "Error cleaning up user data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &stubProfiles{err: tt.err}
			h := newTestRouter(&stubNotes{}, profiles)

			rec, out := do(t, h, http.MethodPost, tt.target, tt.token, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, true, out["success"])
				require.NotNil(t, profiles.caller)
				assert.Equal(t, "user-a", profiles.caller.UserID)
				assert.Equal(t, "user-a", profiles.uid)
				return
			}
			assert.Equal(t, tt.wantError, out["error"])
		})
	}
}

func TestRouter_Operational(t *testing.T) {
	h := newTestRouter(&stubNotes{}, &stubProfiles{})

	rec, out := do(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	h.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), "# metrics")

	rec, out = do(t, h, http.MethodGet, "/v1/unknown", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", out["code"])
}
