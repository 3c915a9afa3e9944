package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"automatisierung-backend/database"
	"automatisierung-backend/ledger"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"
	"automatisierung-backend/utils"
	"automatisierung-backend/webhook"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WebhookClient performs the outbound calls; tests swap it for a client
// pointed at a local httptest server.
var WebhookClient = webhook.New()

type AutomationInput struct {
	Name                string `json:"name" validate:"required"`
	Description         string `json:"description"`
	WebhookUrl          string `json:"webhook_url" validate:"required,url"`
	AuthType            string `json:"auth_type" validate:"omitempty,oneof=none basic jwt header"`
	AuthUsername        string `json:"auth_username"`
	AuthPassword        string `json:"auth_password"`
	AuthToken           string `json:"auth_token"`
	CreditsPerExecution int64  `json:"credits_per_execution" validate:"gte=0"`
}

type AutomationUpdateInput struct {
	Name                *string `json:"name"`
	Description         *string `json:"description"`
	WebhookUrl          *string `json:"webhook_url" validate:"omitempty,url"`
	AuthType            *string `json:"auth_type" validate:"omitempty,oneof=none basic jwt header"`
	AuthUsername        *string `json:"auth_username"`
	AuthPassword        *string `json:"auth_password"`
	AuthToken           *string `json:"auth_token"`
	CreditsPerExecution *int64  `json:"credits_per_execution" validate:"omitempty,gte=0"`
}

// loadOwnedAutomation fetches the automation and enforces ownership.
// Missing rows are 404, foreign rows are 403.
func loadOwnedAutomation(tx *gorm.DB, id, userID string) (models.Automation, error) {
	var automation models.Automation
	if err := tx.First(&automation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return automation, fiber.NewError(fiber.StatusNotFound, "automation not found")
		}
		return automation, err
	}
	if automation.UserID != userID {
		return automation, fiber.NewError(fiber.StatusForbidden, "not the owner of this automation")
	}
	return automation, nil
}

func CreateAutomation(c *fiber.Ctx) error {
	var input AutomationInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	authType := input.AuthType
	if authType == "" {
		authType = models.AuthTypeNone
	}

	automation := models.Automation{
		Name:                input.Name,
		Description:         input.Description,
		WebhookUrl:          input.WebhookUrl,
		AuthType:            authType,
		AuthUsername:        input.AuthUsername,
		AuthPassword:        input.AuthPassword,
		AuthToken:           input.AuthToken,
		CreditsPerExecution: input.CreditsPerExecution,
		IsActive:            false, // activation is always an explicit toggle
		UserID:              c.Locals("userID").(string),
	}

	if err := tx.Create(&automation).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not create automation", "error": err.Error()})
	}

	return c.Status(201).JSON(automation)
}

func GetAutomations(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	var automations []models.Automation
	if err := tx.Where("user_id = ?", c.Locals("userID").(string)).
		Order("created_at DESC").Find(&automations).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list automations", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"message":     "success",
	})
}

func GetAutomation(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	automation, err := loadOwnedAutomation(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}
	return c.JSON(automation)
}

func UpdateAutomation(c *fiber.Ctx) error {
	var input AutomationUpdateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&input)

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	automation, err := loadOwnedAutomation(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.JSON(automation)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := tx.Model(&automation).Updates(updates).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "Could not update automation", "error": err.Error()})
	}
	return c.JSON(automation)
}

// ToggleAutomation flips the active flag. Owners manage their own
// automations without a credit gate; the gate applies to client
// activations (see ToggleClientAutomation).
func ToggleAutomation(c *fiber.Ctx) error {
	var data struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "Invalid input"})
	}

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	automation, err := loadOwnedAutomation(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	if err := tx.Model(&automation).Updates(map[string]any{
		"is_active":  data.IsActive,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not toggle automation", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"id":        automation.Id,
		"is_active": data.IsActive,
		"message":   "success",
	})
}

// DeleteAutomation removes the automation and everything referencing it:
// executions, client executions and assignments. Runs inside the request
// TX, so a failed step rolls the whole cascade back.
func DeleteAutomation(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	automation, err := loadOwnedAutomation(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	if err := tx.Where("automation_id = ?", automation.Id).Delete(&models.Execution{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete executions", "error": err.Error()})
	}
	if err := tx.Where("automation_id = ?", automation.Id).Delete(&models.ClientExecution{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete client executions", "error": err.Error()})
	}
	if err := tx.Where("automation_id = ?", automation.Id).Delete(&models.ClientAutomation{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete assignments", "error": err.Error()})
	}
	if err := tx.Delete(&automation).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete automation", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "success"})
}

type ExecuteInput struct {
	ClientID string          `json:"client_id"`
	Payload  json.RawMessage `json:"payload"`
}

// ExecuteWebhook runs one invocation: verify, record a running execution,
// call the endpoint outside any transaction, then finalize the outcome.
// Client-scoped runs are debited on success; failures are never billed.
func ExecuteWebhook(c *fiber.Ctx) error {
	var input ExecuteInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "Invalid input"})
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}
	userID := c.Locals("userID").(string)

	var (
		automation      models.Automation
		execution       models.Execution
		clientExecution *models.ClientExecution
		creditsPerRun   int64
	)

	// Phase 1: verify and record the running attempt in one short TX.
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		automation, txErr = loadOwnedAutomation(tx, c.Params("id"), userID)
		if txErr != nil {
			return txErr
		}
		if !automation.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, "automation is not active")
		}
		creditsPerRun = automation.CreditsPerExecution

		if input.ClientID != "" {
			var client models.Client
			if err := tx.First(&client, "id = ?", input.ClientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "client not found")
				}
				return err
			}
			if client.UserID != userID {
				return fiber.NewError(fiber.StatusForbidden, "not the owner of this client")
			}

			var assignment models.ClientAutomation
			if err := tx.Where("client_id = ? AND automation_id = ?", input.ClientID, automation.Id).
				First(&assignment).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "automation is not assigned to this client")
				}
				return err
			}
			if !assignment.IsActive {
				return fiber.NewError(fiber.StatusBadRequest, "assignment is not active")
			}
			creditsPerRun = assignment.CreditsPerExecution

			// Advisory pre-check; the debit in phase 2 is authoritative.
			enough, err := ledger.HasSufficient(tx, ledger.ClientAccount{ClientID: input.ClientID}, creditsPerRun)
			if err != nil {
				return err
			}
			if !enough {
				return fiber.NewError(fiber.StatusPaymentRequired, "insufficient credits")
			}
		}

		now := time.Now().UTC()
		externalID := utils.NewExecutionID()

		execution = models.Execution{
			AutomationID:        automation.Id,
			UserID:              userID,
			ExternalExecutionID: externalID,
			Status:              models.ExecutionStatusRunning,
			StartedAt:           now,
		}
		if err := tx.Create(&execution).Error; err != nil {
			return err
		}

		if input.ClientID != "" {
			clientExecution = &models.ClientExecution{
				ClientID:            input.ClientID,
				AutomationID:        automation.Id,
				ExternalExecutionID: externalID,
				Status:              models.ExecutionStatusRunning,
				StartedAt:           now,
			}
			if err := tx.Create(clientExecution).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Phase 2: the external call, outside any transaction. It can take an
	// arbitrary network duration; nothing holds a DB connection meanwhile.
	result, callErr := WebhookClient.Invoke(c.Context(), automation, input.Payload)

	if callErr != nil {
		if err := finalizeExecution(db, &execution, clientExecution, models.ExecutionStatusFailed, 0, nil, callErr.Error()); err != nil {
			return c.Status(500).JSON(fiber.Map{"message": "Could not record failed execution", "error": err.Error()})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":      "webhook call failed",
			"error":        callErr.Error(),
			"execution_id": execution.Id,
		})
	}

	// Endpoints may answer with an empty or non-JSON body; store those as a
	// JSON string so the result column stays valid JSON.
	if len(result) == 0 {
		result = json.RawMessage("null")
	} else if !json.Valid(result) {
		result, _ = json.Marshal(string(result))
	}

	// Phase 3: finalize success. Client-scoped runs debit the ledger in
	// the same transaction; a refused debit finalizes the run as failed so
	// the balance can never go negative.
	debitRefused := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if input.ClientID != "" {
			_, err := ledger.Debit(tx, ledger.ClientAccount{ClientID: input.ClientID}, creditsPerRun, ledger.Entry{
				TransactionType: models.TxTypeUsage,
				AutomationID:    automation.Id,
				ExecutionID:     execution.Id,
				Notes:           "webhook execution",
			})
			if errors.Is(err, ledger.ErrInsufficientCredits) {
				debitRefused = true
				return nil
			}
			if err != nil {
				return err
			}
		}
		return finalizeExecutionTx(tx, &execution, clientExecution, models.ExecutionStatusSuccess, creditsPerRun, result, "")
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not record execution", "error": err.Error()})
	}

	if debitRefused {
		if err := finalizeExecution(db, &execution, clientExecution, models.ExecutionStatusFailed, 0, nil, "insufficient credits at completion"); err != nil {
			return c.Status(500).JSON(fiber.Map{"message": "Could not record failed execution", "error": err.Error()})
		}
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"message":      "insufficient credits",
			"execution_id": execution.Id,
		})
	}

	return c.JSON(fiber.Map{
		"success":               true,
		"execution_id":          execution.Id,
		"external_execution_id": execution.ExternalExecutionID,
		"result":                json.RawMessage(result),
	})
}

func finalizeExecution(db *gorm.DB, execution *models.Execution, clientExecution *models.ClientExecution, status string, creditsUsed int64, result []byte, errMsg string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return finalizeExecutionTx(tx, execution, clientExecution, status, creditsUsed, result, errMsg)
	})
}

// finalizeExecutionTx moves the running row(s) to their terminal state.
// Terminal rows are never touched again.
func finalizeExecutionTx(tx *gorm.DB, execution *models.Execution, clientExecution *models.ClientExecution, status string, creditsUsed int64, result []byte, errMsg string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":       status,
		"credits_used": creditsUsed,
		"finished_at":  &now,
		"error":        errMsg,
	}
	if result != nil {
		updates["result"] = result
	}

	if err := tx.Model(execution).
		Where("status = ?", models.ExecutionStatusRunning).
		Updates(updates).Error; err != nil {
		return err
	}
	if clientExecution != nil {
		if err := tx.Model(clientExecution).
			Where("status = ?", models.ExecutionStatusRunning).
			Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}
