package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/codefyre/backend/internal/model/identity"
	"github.com/codefyre/backend/internal/model/project"
	projectservice "github.com/codefyre/backend/internal/service/project"
)

var (
	testVisitor = identity.Identity{UID: "visitor-1", Email: "v@example.com", Name: "Visitor", Role: identity.RoleVisitor}
	testAdmin   = identity.Identity{UID: "admin-1", Email: "a@example.com", Name: "Admin", Role: identity.RoleAdmin}
)

type fakeProjectRepo struct {
	projects []project.Project
	activity []project.ActivityLog
}

func (f *fakeProjectRepo) InsertProject(_ context.Context, p *project.Project) error {
	f.projects = append(f.projects, *p)
	return nil
}

func (f *fakeProjectRepo) ListProjects(_ context.Context, ownerID string) ([]project.Project, error) {
	if ownerID == "" {
		return append([]project.Project(nil), f.projects...), nil
	}
	var out []project.Project
	for _, p := range f.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) GetProject(_ context.Context, id string) (project.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return project.Project{}, errors.New("project not found")
}

func (f *fakeProjectRepo) SetProjectStatus(_ context.Context, id string, status project.Status) error {
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects[i].Status = status
		}
	}
	return nil
}

func (f *fakeProjectRepo) InsertActivity(_ context.Context, a *project.ActivityLog) error {
	f.activity = append(f.activity, *a)
	return nil
}

func (f *fakeProjectRepo) ListActivity(_ context.Context, ownerID string) ([]project.ActivityLog, error) {
	if ownerID == "" {
		return append([]project.ActivityLog(nil), f.activity...), nil
	}
	var out []project.ActivityLog
	for _, a := range f.activity {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func setupRouter() (*chi.Mux, *fakeProjectRepo) {
	repo := &fakeProjectRepo{}
	handler := New(projectservice.NewService(repo))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, repo
}

func authedRequest(method, target string, body []byte, caller identity.Identity) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(identity.WithContext(req.Context(), caller))
}

func TestCreateProject(t *testing.T) {
	r, repo := setupRouter()

	payload, _ := json.Marshal(map[string]string{
		"title":       "New website",
		"projectType": "web",
		"budgetRange": "5k-10k",
	})
	req := authedRequest(http.MethodPost, "/projects", payload, testVisitor)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if len(repo.projects) != 1 {
		t.Fatalf("expected 1 stored project, got %d", len(repo.projects))
	}
	if repo.projects[0].Status != project.StatusPending {
		t.Fatalf("expected new project pending, got %s", repo.projects[0].Status)
	}
	if len(repo.activity) != 1 || repo.activity[0].Action != "Project created" {
		t.Fatalf("expected a created activity row, got %+v", repo.activity)
	}
}

func TestCreateProjectMissingTitle(t *testing.T) {
	r, _ := setupRouter()

	payload, _ := json.Marshal(map[string]string{"projectType": "web"})
	req := authedRequest(http.MethodPost, "/projects", payload, testVisitor)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListProjectsScopedToCaller(t *testing.T) {
	r, repo := setupRouter()
	repo.projects = []project.Project{
		{ID: "p1", OwnerID: testVisitor.UID, Title: "mine"},
		{ID: "p2", OwnerID: "someone-else", Title: "theirs"},
	}

	req := authedRequest(http.MethodGet, "/projects", nil, testVisitor)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var list []project.Project
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 || list[0].ID != "p1" {
		t.Fatalf("expected only the caller's project, got %+v", list)
	}

	req = authedRequest(http.MethodGet, "/projects", nil, testAdmin)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected admin to see both projects, got %d", len(list))
	}
}

func TestUpdateProjectStatusAdminOnly(t *testing.T) {
	r, repo := setupRouter()
	repo.projects = []project.Project{{ID: "p1", OwnerID: testVisitor.UID, Status: project.StatusPending}}

	payload, _ := json.Marshal(map[string]string{"status": "in_progress"})

	req := authedRequest(http.MethodPatch, "/projects/p1/status", payload, testVisitor)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for visitor, got %d", resp.Code)
	}

	req = authedRequest(http.MethodPatch, "/projects/p1/status", payload, testAdmin)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}
	if repo.projects[0].Status != project.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", repo.projects[0].Status)
	}
	// The owner's feed records the transition.
	if len(repo.activity) != 1 || repo.activity[0].OwnerID != testVisitor.UID || repo.activity[0].Details != "in_progress" {
		t.Fatalf("expected a status-change activity row, got %+v", repo.activity)
	}
}

func TestUpdateProjectStatusRejectsUnknownState(t *testing.T) {
	r, repo := setupRouter()
	repo.projects = []project.Project{{ID: "p1", OwnerID: testVisitor.UID, Status: project.StatusPending}}

	payload, _ := json.Marshal(map[string]string{"status": "archived"})
	req := authedRequest(http.MethodPatch, "/projects/p1/status", payload, testAdmin)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if repo.projects[0].Status != project.StatusPending {
		t.Fatalf("status mutated by invalid request: %s", repo.projects[0].Status)
	}
}

func TestActivityFeed(t *testing.T) {
	r, repo := setupRouter()
	repo.activity = []project.ActivityLog{
		{ID: "a1", OwnerID: testVisitor.UID, Action: "Project created"},
		{ID: "a2", OwnerID: "someone-else", Action: "Project created"},
	}

	req := authedRequest(http.MethodGet, "/activity", nil, testVisitor)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var list []project.ActivityLog
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a1" {
		t.Fatalf("expected only the caller's activity, got %+v", list)
	}
}
