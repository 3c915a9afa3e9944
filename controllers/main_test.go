package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"automatisierung-backend/controllers"
	"automatisierung-backend/database"
	"automatisierung-backend/ledger"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"
	"automatisierung-backend/routes"
	"automatisierung-backend/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp wires a fiber app with all routes against a fresh in-memory DB.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	require.NoError(t, database.AutoMigrate())

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	routes.Register(app)
	return app, db
}

func seedUserWithToken(t *testing.T, db *gorm.DB) (models.User, string) {
	t.Helper()
	user := models.User{FirstName: "Sanne", LastName: "Visser", Email: "sanne@agency.example"}
	user.SetPassword("s3cret!pw")
	require.NoError(t, db.Create(&user).Error)

	token, err := middlewares.GenerateJWT(user.Id)
	require.NoError(t, err)
	return user, token
}

func seedClient(t *testing.T, db *gorm.DB, userID string) models.Client {
	t.Helper()
	client := models.Client{CompanyName: "Acme BV", Email: "ops@acme.example", UserID: userID}
	require.NoError(t, db.Create(&client).Error)
	return client
}

func seedAutomation(t *testing.T, db *gorm.DB, userID, url string, credits int64, active bool) models.Automation {
	t.Helper()
	automation := models.Automation{
		Name:                "Lead sync",
		WebhookUrl:          url,
		AuthType:            models.AuthTypeNone,
		CreditsPerExecution: credits,
		IsActive:            active,
		UserID:              userID,
	}
	require.NoError(t, db.Create(&automation).Error)
	return automation
}

func seedAssignment(t *testing.T, db *gorm.DB, clientID, automationID string, credits int64, active bool) models.ClientAutomation {
	t.Helper()
	assignment := models.ClientAutomation{
		ClientID:            clientID,
		AutomationID:        automationID,
		CreditsPerExecution: credits,
		IsActive:            active,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func topUpClient(t *testing.T, db *gorm.DB, clientID string, amount int64) {
	t.Helper()
	_, err := ledger.ClientAccount{ClientID: clientID}.Record(db, ledger.Entry{
		Amount:          amount,
		TransactionType: models.TxTypePurchase,
	})
	require.NoError(t, err)
}

// doRequest performs one request against the app and decodes the JSON body.
func doRequest(t *testing.T, app *fiber.App, method, url, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

// newWebhookServer serves canned responses and swaps the package webhook
// client for one that talks to it; the original client is restored on
// cleanup.
func newWebhookServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	original := controllers.WebhookClient
	controllers.WebhookClient = &webhook.Client{HTTP: server.Client()}
	t.Cleanup(func() { controllers.WebhookClient = original })

	return server
}
