package controllers_test

import (
	"testing"

	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAutomationDefaultsInactive(t *testing.T) {
	app, db := setupApp(t)
	_, token := seedUserWithToken(t, db)

	status, body := doRequest(t, app, "POST", "/api/automation", token, map[string]any{
		"name":                  "CRM sync",
		"webhook_url":           "https://hooks.example.com/crm",
		"auth_type":             "jwt",
		"auth_token":            "tok",
		"credits_per_execution": 3,
	})
	require.Equal(t, 201, status)
	assert.Equal(t, false, body["is_active"])
	assert.Equal(t, float64(3), body["credits_per_execution"])
}

func TestCreateAutomationValidation(t *testing.T) {
	app, db := setupApp(t)
	_, token := seedUserWithToken(t, db)

	status, body := doRequest(t, app, "POST", "/api/automation", token, map[string]any{
		"name":                  "broken",
		"webhook_url":           "not a url",
		"credits_per_execution": -1,
	})
	assert.Equal(t, 422, status)
	assert.Equal(t, "validation failed", body["message"])
}

func TestAutomationOwnershipEnforced(t *testing.T) {
	app, db := setupApp(t)
	owner, _ := seedUserWithToken(t, db)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 1, false)

	intruder := models.User{FirstName: "Eva", LastName: "Smit", Email: "eva@other.example"}
	intruder.SetPassword("pw1234567")
	require.NoError(t, db.Create(&intruder).Error)
	intruderToken := tokenFor(t, intruder.Id)

	status, _ := doRequest(t, app, "GET", "/api/automation/"+automation.Id, intruderToken, nil)
	assert.Equal(t, 403, status)

	status, _ = doRequest(t, app, "PUT", "/api/automation/"+automation.Id+"/toggle", intruderToken,
		map[string]any{"is_active": true})
	assert.Equal(t, 403, status)

	status, _ = doRequest(t, app, "DELETE", "/api/automation/"+automation.Id, intruderToken, nil)
	assert.Equal(t, 403, status)

	status, _ = doRequest(t, app, "GET", "/api/automation/"+automation.Id, "", nil)
	assert.Equal(t, 401, status)
}

func TestToggleAutomationOwnerNeedsNoCredits(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 50, false)

	// Owner has zero balance; activation still succeeds.
	status, body := doRequest(t, app, "PUT", "/api/automation/"+automation.Id+"/toggle", token,
		map[string]any{"is_active": true})
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["is_active"])

	var got models.Automation
	require.NoError(t, db.First(&got, "id = ?", automation.Id).Error)
	assert.True(t, got.IsActive)
}

func TestUpdateAutomationPartial(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 2, false)

	status, _ := doRequest(t, app, "PUT", "/api/automation/"+automation.Id, token, map[string]any{
		"name":                  "  Renamed  ",
		"credits_per_execution": 7,
	})
	require.Equal(t, 200, status)

	var got models.Automation
	require.NoError(t, db.First(&got, "id = ?", automation.Id).Error)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(7), got.CreditsPerExecution)
	// Untouched fields survive a partial update.
	assert.Equal(t, "https://hooks.example.com/a", got.WebhookUrl)
}

func TestDeleteAutomationCascades(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 1, true)
	seedAssignment(t, db, client.Id, automation.Id, 1, true)

	require.NoError(t, db.Create(&models.Execution{
		AutomationID: automation.Id, UserID: owner.Id, Status: models.ExecutionStatusSuccess,
	}).Error)
	require.NoError(t, db.Create(&models.ClientExecution{
		ClientID: client.Id, AutomationID: automation.Id, Status: models.ExecutionStatusSuccess,
	}).Error)

	status, _ := doRequest(t, app, "DELETE", "/api/automation/"+automation.Id, token, nil)
	require.Equal(t, 200, status)

	for _, model := range []any{&models.Execution{}, &models.ClientExecution{}, &models.ClientAutomation{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("automation_id = ?", automation.Id).Count(&count).Error)
		assert.Equal(t, int64(0), count, "%T rows should be gone", model)
	}

	var count int64
	require.NoError(t, db.Model(&models.Automation{}).Where("id = ?", automation.Id).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGetExecutionsScopedToOwner(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 1, true)
	require.NoError(t, db.Create(&models.Execution{
		AutomationID: automation.Id, UserID: owner.Id, Status: models.ExecutionStatusSuccess,
	}).Error)
	require.NoError(t, db.Create(&models.Execution{
		AutomationID: automation.Id, UserID: "someone-else", Status: models.ExecutionStatusSuccess,
	}).Error)

	status, body := doRequest(t, app, "GET", "/api/executions", token, nil)
	require.Equal(t, 200, status)
	executions := body["executions"].([]any)
	assert.Len(t, executions, 1)
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := middlewares.GenerateJWT(userID)
	require.NoError(t, err)
	return token
}
