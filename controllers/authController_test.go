package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"automatisierung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationAndLogin(t *testing.T) {
	app, db := setupApp(t)

	status, body := doRequest(t, app, "POST", "/api/registration", "", map[string]any{
		"first_name":       "Sanne",
		"last_name":        "Visser",
		"email":            "sanne@agency.example",
		"company":          "Flowlab",
		"password":         "s3cret!pw",
		"password_confirm": "s3cret!pw",
	})
	require.Equal(t, 200, status)
	assert.Equal(t, "sanne@agency.example", body["email"])

	// Passwords never leak.
	_, hasPassword := body["password"]
	assert.False(t, hasPassword)

	var user models.User
	require.NoError(t, db.Where("email = ?", "sanne@agency.example").First(&user).Error)
	assert.NoError(t, user.ComparePassword("s3cret!pw"))

	status, body = doRequest(t, app, "POST", "/api/login", "", map[string]any{
		"email":    "sanne@agency.example",
		"password": "s3cret!pw",
	})
	require.Equal(t, 200, status)
	token := body["token"].(string)
	require.NotEmpty(t, token)

	// The token works against a protected route.
	status, _ = doRequest(t, app, "GET", "/api/automations", token, nil)
	assert.Equal(t, 200, status)
}

func TestRegistrationDuplicateEmail(t *testing.T) {
	app, db := setupApp(t)
	seedUserWithToken(t, db)

	status, body := doRequest(t, app, "POST", "/api/registration", "", map[string]any{
		"first_name":       "Other",
		"last_name":        "Person",
		"email":            "sanne@agency.example",
		"password":         "whatever1",
		"password_confirm": "whatever1",
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "email already exists", body["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	app, db := setupApp(t)
	seedUserWithToken(t, db)

	status, _ := doRequest(t, app, "POST", "/api/login", "", map[string]any{
		"email":    "sanne@agency.example",
		"password": "wrong-password",
	})
	assert.Equal(t, 400, status)
}

func TestIdempotencyKeyReplaysResponse(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)

	payload, _ := json.Marshal(map[string]any{
		"amount":           50,
		"transaction_type": "purchase",
	})

	send := func() (int, []byte) {
		req := httptest.NewRequest("POST", "/api/credits", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "topup-2026-08-001")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, raw
	}

	status1, body1 := send()
	require.Equal(t, 201, status1)

	status2, body2 := send()
	assert.Equal(t, 201, status2)
	assert.JSONEq(t, string(body1), string(body2))

	// The handler ran once: one ledger entry, balance 50 not 100.
	var count int64
	require.NoError(t, db.Model(&models.Credit{}).Where("user_id = ?", owner.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
