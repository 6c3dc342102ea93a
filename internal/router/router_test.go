package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-assessment/internal/config"
	"github.com/stemsi/exstem-assessment/internal/database"
	"github.com/stemsi/exstem-assessment/internal/handler"
	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/results"
	"github.com/stemsi/exstem-assessment/internal/service"
)

const secret = "router-test-secret"

type okSessions struct{}

func (okSessions) Create(_ context.Context, _ model.Actor, classID uuid.UUID, p model.SessionParams) (*model.SessionSchedule, error) {
	s := &model.SessionSchedule{ID: uuid.New(), ClassID: classID}
	s.Apply(p)
	return s, nil
}
func (okSessions) Update(_ context.Context, _ model.Actor, id uuid.UUID, _ model.SessionParams) (*model.SessionSchedule, error) {
	return &model.SessionSchedule{ID: id}, nil
}
func (okSessions) SetActive(context.Context, model.Actor, uuid.UUID, bool) error { return nil }
func (okSessions) Delete(context.Context, model.Actor, uuid.UUID) error          { return nil }
func (okSessions) Get(_ context.Context, _ model.Actor, id uuid.UUID) (*model.SessionView, error) {
	return &model.SessionView{SessionSchedule: model.SessionSchedule{ID: id}}, nil
}
func (okSessions) ListByClass(context.Context, model.Actor, uuid.UUID) ([]model.SessionView, error) {
	return nil, nil
}
func (okSessions) ListForStudent(context.Context, model.Actor) ([]model.SessionView, error) {
	return nil, nil
}

type okAttempts struct{}

func (okAttempts) Start(_ context.Context, sessionID uuid.UUID, _ model.Actor) (*model.StartedAttempt, error) {
	return &model.StartedAttempt{AttemptID: uuid.New(), SessionID: sessionID, AttemptNumber: 1}, nil
}
func (okAttempts) Submit(_ context.Context, _, attemptID, _ uuid.UUID, _ []model.SubmittedAnswer) (*results.AttemptResult, error) {
	return &results.AttemptResult{AttemptID: attemptID}, nil
}
func (okAttempts) GetAttempt(_ context.Context, id uuid.UUID, _ model.Actor) (*model.AttemptPaper, error) {
	return &model.AttemptPaper{Attempt: model.StudentAttempt{ID: id}}, nil
}
func (okAttempts) ListMyAttempts(context.Context, uuid.UUID, uuid.UUID) ([]results.AttemptResult, error) {
	return nil, nil
}

type okResults struct{}

func (okResults) GetSessionResults(_ context.Context, _ model.Actor, id uuid.UUID) (*results.SessionResults, error) {
	return &results.SessionResults{SessionID: id}, nil
}
func (okResults) ListSessionAttempts(context.Context, model.Actor, uuid.UUID) ([]results.AttemptSummary, error) {
	return []results.AttemptSummary{}, nil
}

func newTestRouter(t *testing.T, rateLimit int) (*gin.Engine, *service.IdentityService) {
	t.Helper()
	cfg := &config.Config{GinMode: gin.TestMode, AttemptRateLimit: rateLimit, CompressionMinBytes: 1024}
	identity := service.NewIdentityService(secret)
	handlers := &Handlers{
		Session: handler.NewSessionHandler(okSessions{}),
		Attempt: handler.NewAttemptHandler(okAttempts{}),
		Results: handler.NewResultsHandler(okResults{}),
		Monitor: handler.NewMonitorHandler(okResults{}, nil, zerolog.Nop(), nil),
		Health: handler.NewHealthHandler(func(context.Context) database.HealthReport {
			return database.HealthReport{Postgres: "ok", Redis: "disabled"}
		}),
	}
	return SetupRouter(identity, handlers, cfg), identity
}

func bearer(t *testing.T, identity *service.IdentityService, role model.Role) string {
	t.Helper()
	tok, err := identity.IssueToken(model.Actor{UserID: uuid.New(), Role: role}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func TestRoutes(t *testing.T) {
	r, identity := newTestRouter(t, 0)
	sessionID := uuid.NewString()
	attemptID := uuid.NewString()

	tests := []struct {
		name       string
		method     string
		path       string
		role       model.Role
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"api needs token", http.MethodGet, "/api/v1/sessions/" + sessionID, "", http.StatusUnauthorized},
		{"student reads session", http.MethodGet, "/api/v1/sessions/" + sessionID, model.RoleStudent, http.StatusOK},
		{"teacher reads session", http.MethodGet, "/api/v1/sessions/" + sessionID, model.RoleTeacher, http.StatusOK},
		{"student starts attempt", http.MethodPost, "/api/v1/sessions/" + sessionID + "/attempts", model.RoleStudent, http.StatusCreated},
		{"teacher starts preview attempt", http.MethodPost, "/api/v1/sessions/" + sessionID + "/attempts", model.RoleTeacher, http.StatusCreated},
		{"admin starts preview attempt", http.MethodPost, "/api/v1/sessions/" + sessionID + "/attempts", model.RoleAdmin, http.StatusCreated},
		{"teacher lists own attempts", http.MethodGet, "/api/v1/sessions/" + sessionID + "/attempts", model.RoleTeacher, http.StatusOK},
		{"student reads attempt", http.MethodGet, "/api/v1/attempts/" + attemptID, model.RoleStudent, http.StatusOK},
		{"teacher reads attempt", http.MethodGet, "/api/v1/attempts/" + attemptID, model.RoleTeacher, http.StatusOK},
		{"admin reads attempt", http.MethodGet, "/api/v1/attempts/" + attemptID, model.RoleAdmin, http.StatusOK},
		{"student lists enrolled sessions", http.MethodGet, "/api/v1/student/sessions", model.RoleStudent, http.StatusOK},
		{"teacher cannot use student routes", http.MethodGet, "/api/v1/student/sessions", model.RoleTeacher, http.StatusForbidden},
		{"teacher lists session attempts", http.MethodGet, "/api/v1/teacher/sessions/" + sessionID + "/attempts", model.RoleTeacher, http.StatusOK},
		{"student cannot list session attempts", http.MethodGet, "/api/v1/teacher/sessions/" + sessionID + "/attempts", model.RoleStudent, http.StatusForbidden},
		{"student cannot read results", http.MethodGet, "/api/v1/teacher/sessions/" + sessionID + "/results", model.RoleStudent, http.StatusForbidden},
		{"teacher reads results", http.MethodGet, "/api/v1/teacher/sessions/" + sessionID + "/results", model.RoleTeacher, http.StatusOK},
		{"admin deactivates", http.MethodPost, "/api/v1/teacher/sessions/" + sessionID + "/deactivate", model.RoleAdmin, http.StatusNoContent},
		{"teacher deletes", http.MethodDelete, "/api/v1/teacher/sessions/" + sessionID, model.RoleTeacher, http.StatusNoContent},
		{"monitor needs query token", http.MethodGet, "/ws/v1/teacher/sessions/" + sessionID + "/monitor", model.RoleTeacher, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, identity, tt.role))
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAttemptRoutesAreRateLimited(t *testing.T) {
	r, identity := newTestRouter(t, 2)
	auth := bearer(t, identity, model.RoleStudent)
	path := "/api/v1/sessions/" + uuid.NewString() + "/attempts"

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [201 201 429]", codes)
	}
}
