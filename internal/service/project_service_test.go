package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/validation"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type stubProjects struct {
	role    models.ProjectRole
	members []models.ProjectMember
	deleted []string
	added   []models.AddMemberInput
	removed []string
}

func (s *stubProjects) List(ctx context.Context, token string) ([]models.Project, error) {
	return []models.Project{{ID: "p1", Role: s.role}}, nil
}

func (s *stubProjects) Get(ctx context.Context, token, id string) (*models.Project, error) {
	if id == "missing" {
		return nil, appErrors.ErrNotFound
	}
	return &models.Project{ID: id, Role: s.role}, nil
}

func (s *stubProjects) Create(ctx context.Context, token string, input models.ProjectInput) (*models.Project, error) {
	return &models.Project{ID: "new", Name: input.Name, Role: models.ProjectRoleOwner}, nil
}

func (s *stubProjects) Update(ctx context.Context, token, id string, input models.ProjectInput) (*models.Project, error) {
	return &models.Project{ID: id, Name: input.Name, Role: s.role}, nil
}

func (s *stubProjects) Delete(ctx context.Context, token, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubProjects) Members(ctx context.Context, token, projectID string) ([]models.ProjectMember, error) {
	if projectID == "missing" {
		return nil, appErrors.ErrNotFound
	}
	return s.members, nil
}

func (s *stubProjects) AddMember(ctx context.Context, token, projectID string, input models.AddMemberInput) error {
	s.added = append(s.added, input)
	return nil
}

func (s *stubProjects) RemoveMember(ctx context.Context, token, projectID, userID string) error {
	s.removed = append(s.removed, userID)
	return nil
}

func (s *stubProjects) Timeline(ctx context.Context, token, projectID string) ([]models.TimelineEntry, error) {
	return nil, nil
}

type stubInvalidator struct {
	users []string
}

func (s *stubInvalidator) Invalidate(ctx context.Context, userID string) {
	s.users = append(s.users, userID)
}

func newProjectService(t *testing.T, role models.ProjectRole) (*ProjectService, *stubProjects, *stubInvalidator) {
	repo := &stubProjects{role: role}
	inv := &stubInvalidator{}
	return NewProjectService(repo, validation.New(testConverter(t), 0), inv, nil), repo, inv
}

func TestProjectCreateValidatesAndInvalidates(t *testing.T) {
	svc, _, inv := newProjectService(t, models.ProjectRoleOwner)

	_, err := svc.Create(context.Background(), testAuth("u1"), models.ProjectInput{Name: "   "})
	assert.ErrorIs(t, err, appErrors.ErrMissingRequiredField)

	project, err := svc.Create(context.Background(), testAuth("u1"), models.ProjectInput{Name: " Launch "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", project.Name)
	assert.Equal(t, []string{"u1"}, inv.users)
}

func TestProjectManagementRequiresRole(t *testing.T) {
	svc, repo, _ := newProjectService(t, models.ProjectRoleMember)
	auth := testAuth("u1")

	_, err := svc.Update(context.Background(), auth, "p1", models.ProjectInput{Name: "Renamed"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.AddMember(context.Background(), auth, "p1", models.AddMemberInput{Email: "bo@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.RemoveMember(context.Background(), auth, "p1", "u2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.RemoveMember(context.Background(), auth, "p1", "u1"))
	assert.Equal(t, []string{"u1"}, repo.removed)
}

func TestProjectAdminCanManageButNotDelete(t *testing.T) {
	svc, repo, _ := newProjectService(t, models.ProjectRoleAdmin)
	auth := testAuth("u1")

	require.NoError(t, svc.AddMember(context.Background(), auth, "p1", models.AddMemberInput{Email: "bo@example.com"}))
	require.Len(t, repo.added, 1)
	assert.Equal(t, models.ProjectRoleMember, repo.added[0].Role)

	assert.ErrorIs(t, svc.Delete(context.Background(), auth, "p1"), appErrors.ErrForbidden)
	assert.Empty(t, repo.deleted)
}

func TestProjectOwnerDeletes(t *testing.T) {
	svc, repo, inv := newProjectService(t, models.ProjectRoleOwner)
	require.NoError(t, svc.Delete(context.Background(), testAuth("u1"), "p1"))
	assert.Equal(t, []string{"p1"}, repo.deleted)
	assert.Equal(t, []string{"u1"}, inv.users)

	assert.ErrorIs(t, svc.Delete(context.Background(), testAuth("u1"), "missing"), appErrors.ErrNotFound)
}

func TestProjectAddMemberValidatesEmail(t *testing.T) {
	svc, _, _ := newProjectService(t, models.ProjectRoleOwner)
	err := svc.AddMember(context.Background(), testAuth("u1"), "p1", models.AddMemberInput{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, "email", appErrors.FromError(err).Field)
}

func TestProjectDeleteClearsEveryMemberDashboard(t *testing.T) {
	svc, repo, inv := newProjectService(t, models.ProjectRoleOwner)
	repo.members = []models.ProjectMember{
		{UserID: "u1", Role: models.ProjectRoleOwner},
		{UserID: "u2", Role: models.ProjectRoleMember},
		{Email: "cy@example.com", Role: models.ProjectRoleMember},
	}

	require.NoError(t, svc.Delete(context.Background(), testAuth("u1"), "p1"))
	assert.Equal(t, []string{"u1", "u2", "cy@example.com"}, inv.users)
}

func TestProjectMembershipChangesClearDashboards(t *testing.T) {
	svc, repo, inv := newProjectService(t, models.ProjectRoleOwner)
	repo.members = []models.ProjectMember{{UserID: "u1"}, {UserID: "u3"}}
	auth := testAuth("u1")

	require.NoError(t, svc.AddMember(context.Background(), auth, "p1", models.AddMemberInput{Email: "u3@example.com"}))
	assert.Equal(t, []string{"u1", "u3"}, inv.users)

	inv.users = nil
	repo.members = []models.ProjectMember{{UserID: "u1"}}
	require.NoError(t, svc.RemoveMember(context.Background(), auth, "p1", "u3"))
	assert.Equal(t, []string{"u1", "u3"}, inv.users)
}
