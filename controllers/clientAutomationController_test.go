package controllers_test

import (
	"testing"

	"automatisierung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignAutomation(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, false)

	status, body := doRequest(t, app, "POST", "/api/client/"+client.Id+"/automations", token, map[string]any{
		"automation_id":   automation.Id,
		"initial_credits": 10,
	})
	require.Equal(t, 201, status)
	assert.Equal(t, false, body["is_active"])
	// Cost copied from the automation when not overridden.
	assert.Equal(t, float64(5), body["credits_per_execution"])

	// The initial credits land in the client ledger and the cache.
	var gotClient models.Client
	require.NoError(t, db.First(&gotClient, "id = ?", client.Id).Error)
	assert.Equal(t, int64(10), gotClient.CreditBalance)

	var entry models.ClientCredit
	require.NoError(t, db.Where("client_id = ?", client.Id).First(&entry).Error)
	assert.Equal(t, int64(10), entry.Amount)
	assert.Equal(t, models.TxTypePurchase, entry.TransactionType)
}

func TestAssignAutomationDuplicate(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, false)

	payload := map[string]any{"automation_id": automation.Id}
	status, _ := doRequest(t, app, "POST", "/api/client/"+client.Id+"/automations", token, payload)
	require.Equal(t, 201, status)

	status, body := doRequest(t, app, "POST", "/api/client/"+client.Id+"/automations", token, payload)
	assert.Equal(t, 409, status)
	assert.Equal(t, "automation already assigned to this client", body["message"])

	// Exactly one row for the pair.
	var count int64
	require.NoError(t, db.Model(&models.ClientAutomation{}).
		Where("client_id = ? AND automation_id = ?", client.Id, automation.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAssignAutomationCostOverride(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, false)

	status, body := doRequest(t, app, "POST", "/api/client/"+client.Id+"/automations", token, map[string]any{
		"automation_id":         automation.Id,
		"credits_per_execution": 2,
	})
	require.Equal(t, 201, status)
	assert.Equal(t, float64(2), body["credits_per_execution"])
}

func TestToggleClientAutomationGate(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, true)
	assignment := seedAssignment(t, db, client.Id, automation.Id, 5, false)
	topUpClient(t, db, client.Id, 3) // below the per-execution cost

	url := "/api/client/" + client.Id + "/automations/" + automation.Id + "/toggle"

	status, body := doRequest(t, app, "PUT", url, token, map[string]any{"is_active": true})
	assert.Equal(t, 402, status)
	assert.Equal(t, "insufficient credits", body["message"])

	// The refused activation leaves the flag untouched.
	var got models.ClientAutomation
	require.NoError(t, db.First(&got, "id = ?", assignment.Id).Error)
	assert.False(t, got.IsActive)

	// Top up past the cost and retry.
	topUpClient(t, db, client.Id, 7)
	status, _ = doRequest(t, app, "PUT", url, token, map[string]any{"is_active": true})
	require.Equal(t, 200, status)
	require.NoError(t, db.First(&got, "id = ?", assignment.Id).Error)
	assert.True(t, got.IsActive)

	// Deactivation needs no balance.
	status, _ = doRequest(t, app, "PUT", url, token, map[string]any{"is_active": false})
	require.Equal(t, 200, status)
}

func TestToggleClientAutomationNotAssigned(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, true)

	status, _ := doRequest(t, app, "PUT",
		"/api/client/"+client.Id+"/automations/"+automation.Id+"/toggle", token,
		map[string]any{"is_active": true})
	assert.Equal(t, 404, status)
}

func TestGetClientAutomationsJoins(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, true)
	seedAssignment(t, db, client.Id, automation.Id, 2, true)

	status, body := doRequest(t, app, "GET", "/api/client/"+client.Id+"/automations", token, nil)
	require.Equal(t, 200, status)

	views := body["automations"].([]any)
	require.Len(t, views, 1)
	view := views[0].(map[string]any)
	assert.Equal(t, automation.Id, view["automation_id"])
	assert.Equal(t, "Lead sync", view["name"])
	assert.Equal(t, float64(2), view["credits_per_execution"])
	assert.Equal(t, true, view["is_active"])
}

func TestGetClientAutomationsDanglingReferenceIsAnError(t *testing.T) {
	app, db := setupApp(t)
	owner, token := seedUserWithToken(t, db)
	client := seedClient(t, db, owner.Id)
	automation := seedAutomation(t, db, owner.Id, "https://hooks.example.com/a", 5, true)
	seedAssignment(t, db, client.Id, automation.Id, 5, true)

	// Break the invariant behind the API's back.
	require.NoError(t, db.Delete(&models.Automation{}, "id = ?", automation.Id).Error)

	status, _ := doRequest(t, app, "GET", "/api/client/"+client.Id+"/automations", token, nil)
	assert.Equal(t, 500, status)
}
