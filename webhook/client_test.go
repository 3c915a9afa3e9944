package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"automatisierung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name       string
		automation models.Automation
		want       map[string]string
	}{
		{
			name:       "none",
			automation: models.Automation{AuthType: models.AuthTypeNone},
			want:       map[string]string{},
		},
		{
			name: "basic",
			automation: models.Automation{
				AuthType:     models.AuthTypeBasic,
				AuthUsername: "svc",
				AuthPassword: "secret",
			},
			// base64("svc:secret")
			want: map[string]string{"Authorization": "Basic c3ZjOnNlY3JldA=="},
		},
		{
			name: "basic with missing password omits the header",
			automation: models.Automation{
				AuthType:     models.AuthTypeBasic,
				AuthUsername: "svc",
			},
			want: map[string]string{},
		},
		{
			name: "jwt",
			automation: models.Automation{
				AuthType:  models.AuthTypeJWT,
				AuthToken: "tok123",
			},
			want: map[string]string{"Authorization": "Bearer tok123"},
		},
		{
			name: "header",
			automation: models.Automation{
				AuthType:  models.AuthTypeHeader,
				AuthToken: "tok456",
			},
			want: map[string]string{"X-Auth-Token": "tok456"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthHeaders(tt.automation))
		})
	}
}

func TestInvokeSuccess(t *testing.T) {
	var gotBody []byte
	var gotContentType, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client()}
	automation := models.Automation{
		WebhookUrl: server.URL,
		AuthType:   models.AuthTypeJWT,
		AuthToken:  "tok",
	}

	result, err := client.Invoke(context.Background(), automation, json.RawMessage(`{"key":"value"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(result))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.JSONEq(t, `{"key":"value"}`, string(gotBody))
}

func TestInvokeDefaultsEmptyPayload(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client()}
	_, err := client.Invoke(context.Background(), models.Automation{WebhookUrl: server.URL}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(gotBody))
}

func TestInvokeNon2xxIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client()}
	_, err := client.Invoke(context.Background(), models.Automation{WebhookUrl: server.URL}, nil)
	require.Error(t, err)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, http.StatusInternalServerError, callErr.StatusCode)
	assert.Contains(t, callErr.Body, "boom")
}

func TestInvokeTransportError(t *testing.T) {
	client := New()
	_, err := client.Invoke(context.Background(), models.Automation{WebhookUrl: "http://127.0.0.1:1/unreachable"}, nil)
	assert.Error(t, err)
}
