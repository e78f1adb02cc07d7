package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/dunzo-api/internal/models"
)

// AccountRepository covers the backend's auth, settings and dashboard endpoints.
type AccountRepository struct {
	client upstreamClient
}

// NewAccountRepository constructs an account repository.
func NewAccountRepository(client upstreamClient) *AccountRepository {
	return &AccountRepository{client: client}
}

type authResponse struct {
	Token       flexString `json:"token"`
	AccessToken flexString `json:"access_token"`
	User        *rawUser   `json:"user"`
	Data        *struct {
		Token flexString `json:"token"`
		User  *rawUser   `json:"user"`
	} `json:"data"`
}

type credentials struct {
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the backend.
func (r *AccountRepository) Login(ctx context.Context, email, password string) (*models.UpstreamAuth, error) {
	return r.authenticate(ctx, "/auth/login", credentials{Email: email, Password: password})
}

// Register creates an account on the backend and signs it in.
func (r *AccountRepository) Register(ctx context.Context, fullName, email, password string) (*models.UpstreamAuth, error) {
	return r.authenticate(ctx, "/auth/register", credentials{FullName: fullName, Email: email, Password: password})
}

// Logout invalidates the backend credential.
func (r *AccountRepository) Logout(ctx context.Context, token string) error {
	return r.client.Do(ctx, http.MethodPost, "/auth/logout", token, nil, nil, nil)
}

func (r *AccountRepository) authenticate(ctx context.Context, path string, in credentials) (*models.UpstreamAuth, error) {
	var out authResponse
	if err := r.client.Do(ctx, http.MethodPost, path, "", nil, in, &out); err != nil {
		return nil, err
	}
	result := &models.UpstreamAuth{Token: firstNonEmpty(out.Token, out.AccessToken)}
	user := out.User
	if out.Data != nil {
		if result.Token == "" {
			result.Token = firstNonEmpty(out.Data.Token)
		}
		if user == nil {
			user = out.Data.User
		}
	}
	if user != nil {
		result.User = normalizeUser(*user)
	}
	if result.User.Email == "" {
		result.User.Email = in.Email
	}
	return result, nil
}

type settingsResponse struct {
	User     *rawUser `json:"user"`
	Settings *rawUser `json:"settings"`
	Data     *rawUser `json:"data"`
}

// Settings returns the account settings.
func (r *AccountRepository) Settings(ctx context.Context, token string) (*models.UserSettings, error) {
	var out settingsResponse
	if err := r.client.Do(ctx, http.MethodGet, "/user/settings", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return settingsFrom(out), nil
}

// UpdateSettings changes the account settings.
func (r *AccountRepository) UpdateSettings(ctx context.Context, token string, input models.UpdateSettingsRequest) (*models.UserSettings, error) {
	var out settingsResponse
	if err := r.client.Do(ctx, http.MethodPut, "/user/settings", token, nil, input, &out); err != nil {
		return nil, err
	}
	settings := settingsFrom(out)
	if settings.FullName == "" {
		settings.FullName = input.FullName
	}
	if settings.Email == "" {
		settings.Email = input.Email
	}
	return settings, nil
}

func settingsFrom(out settingsResponse) *models.UserSettings {
	raw := pickOne(out.Settings, out.User, out.Data)
	if raw == nil {
		return &models.UserSettings{}
	}
	user := normalizeUser(*raw)
	return &models.UserSettings{ID: user.ID, FullName: user.FullName, Email: user.Email}
}

type dashboardResponse struct {
	ProjectCount  *int              `json:"project_count"`
	TotalProjects *int              `json:"total_projects"`
	TasksByStatus map[string]int    `json:"tasks_by_status"`
	TaskCounts    map[string]int    `json:"task_counts"`
	Data          *dashboardPayload `json:"data"`
}

type dashboardPayload struct {
	ProjectCount  *int           `json:"project_count"`
	TasksByStatus map[string]int `json:"tasks_by_status"`
}

// DashboardSummary returns the backend's workload aggregate.
func (r *AccountRepository) DashboardSummary(ctx context.Context, token string) (*models.DashboardSummary, error) {
	var out dashboardResponse
	if err := r.client.Do(ctx, http.MethodGet, "/dashboard", token, nil, nil, &out); err != nil {
		return nil, err
	}
	counts := out.TasksByStatus
	if counts == nil {
		counts = out.TaskCounts
	}
	projectCount := pickOne(out.ProjectCount, out.TotalProjects)
	if out.Data != nil {
		if counts == nil {
			counts = out.Data.TasksByStatus
		}
		if projectCount == nil {
			projectCount = out.Data.ProjectCount
		}
	}

	summary := &models.DashboardSummary{TasksByStatus: map[models.TaskStatus]int{}}
	if projectCount != nil {
		summary.ProjectCount = *projectCount
	}
	for status, count := range counts {
		summary.TasksByStatus[normalizeStatus(status)] += count
	}
	return summary, nil
}
