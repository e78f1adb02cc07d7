package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type observerStub struct {
	calls []int
}

func (o *observerStub) ObserveUpstream(method, path string, status int, duration time.Duration) {
	o.calls = append(o.calls, status)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observerStub) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	obs := &observerStub{}
	client, err := New(Config{BaseURL: srv.URL + "/"}, srv.Client(), obs, nil)
	require.NoError(t, err)
	return client, obs
}

func TestClientDoDecodesSuccess(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "p-1", r.URL.Query().Get("project_id"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"projects":[{"id":"p-1"}]}`))
	})

	var out struct {
		Projects []struct {
			ID string `json:"id"`
		} `json:"projects"`
	}
	err := client.Do(context.Background(), http.MethodGet, "projects", "tok-1", url.Values{"project_id": {"p-1"}}, nil, &out)
	require.NoError(t, err)
	require.Len(t, out.Projects, 1)
	assert.Equal(t, "p-1", out.Projects[0].ID)
	assert.Equal(t, []int{http.StatusOK}, obs.calls)
}

func TestClientDoSendsJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a@b.c", payload["email"])
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := client.Do(context.Background(), http.MethodPost, "/login", "", nil, map[string]string{"email": "a@b.c"}, nil)
	require.NoError(t, err)
}

func TestClientDoRejectedEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"title taken"}`))
	})

	err := client.Do(context.Background(), http.MethodPost, "/projects", "tok", nil, map[string]string{}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamRejected.Code, appErr.Code)
	assert.Equal(t, "title taken", appErr.Message)
}

func TestClientDoMapsStatusCodes(t *testing.T) {
	cases := map[int]string{
		http.StatusUnauthorized:        appErrors.ErrUnauthorized.Code,
		http.StatusNotFound:            appErrors.ErrNotFound.Code,
		http.StatusInternalServerError: appErrors.ErrNetwork.Code,
	}
	for status, code := range cases {
		status := status
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
		})
		err := client.Do(context.Background(), http.MethodGet, "/x", "", nil, nil, nil)
		require.Error(t, err)
		assert.Equal(t, code, appErrors.FromError(err).Code)
	}
}

func TestClientDoNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := New(Config{BaseURL: srv.URL}, nil, nil, nil)
	require.NoError(t, err)
	srv.Close()

	err = client.Do(context.Background(), http.MethodGet, "/x", "", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNetwork.Code, appErrors.FromError(err).Code)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil)
	require.Error(t, err)
}
