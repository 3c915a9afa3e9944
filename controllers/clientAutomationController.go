package controllers

import (
	"errors"
	"time"

	"automatisierung-backend/database"
	"automatisierung-backend/ledger"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AssignAutomationInput struct {
	AutomationID        string `json:"automation_id" validate:"required"`
	InitialCredits      int64  `json:"initial_credits" validate:"gte=0"`
	CreditsPerExecution *int64 `json:"credits_per_execution" validate:"omitempty,gte=0"`
}

// AssignAutomation binds an automation to a client. The pair must be new;
// a duplicate attempt is a 409. The per-execution cost is copied from the
// automation unless overridden, and an optional initial credit purchase is
// booked for the client.
func AssignAutomation(c *fiber.Ctx) error {
	var input AssignAutomationInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}
	userID := c.Locals("userID").(string)

	client, err := loadOwnedClient(tx, c.Params("id"), userID)
	if err != nil {
		return err
	}
	automation, err := loadOwnedAutomation(tx, input.AutomationID, userID)
	if err != nil {
		return err
	}

	var existing models.ClientAutomation
	err = tx.Where("client_id = ? AND automation_id = ?", client.Id, automation.Id).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "automation already assigned to this client")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(500).JSON(fiber.Map{"message": "Could not check assignment", "error": err.Error()})
	}

	creditsPerExecution := automation.CreditsPerExecution
	if input.CreditsPerExecution != nil {
		creditsPerExecution = *input.CreditsPerExecution
	}

	assignment := models.ClientAutomation{
		ClientID:            client.Id,
		AutomationID:        automation.Id,
		IsActive:            false,
		CreditsPerExecution: creditsPerExecution,
		AssignedBy:          userID,
	}
	if err := tx.Create(&assignment).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not create assignment", "error": err.Error()})
	}

	if input.InitialCredits > 0 {
		account := ledger.ClientAccount{ClientID: client.Id}
		if _, err := account.Record(tx, ledger.Entry{
			Amount:          input.InitialCredits,
			TransactionType: models.TxTypePurchase,
			AutomationID:    automation.Id,
			Notes:           "initial credits on assignment",
		}); err != nil {
			return c.Status(500).JSON(fiber.Map{"message": "Could not record initial credits", "error": err.Error()})
		}
	}

	return c.Status(201).JSON(assignment)
}

// ToggleClientAutomation flips an assignment's active flag. Activation
// requires the client's balance to cover at least one execution.
func ToggleClientAutomation(c *fiber.Ctx) error {
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
	userID := c.Locals("userID").(string)

	client, err := loadOwnedClient(tx, c.Params("id"), userID)
	if err != nil {
		return err
	}

	var assignment models.ClientAutomation
	if err := tx.Where("client_id = ? AND automation_id = ?", client.Id, c.Params("automationId")).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "automation is not assigned to this client")
		}
		return err
	}

	if data.IsActive {
		enough, err := ledger.HasSufficient(tx, ledger.ClientAccount{ClientID: client.Id}, assignment.CreditsPerExecution)
		if err != nil {
			return err
		}
		if !enough {
			return fiber.NewError(fiber.StatusPaymentRequired, "insufficient credits")
		}
	}

	if err := tx.Model(&assignment).Update("is_active", data.IsActive).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not toggle assignment", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"id":        assignment.Id,
		"is_active": data.IsActive,
		"message":   "success",
	})
}

// ClientAutomationView joins an assignment with its automation for the
// client dashboard.
type ClientAutomationView struct {
	AssignmentID        string    `json:"assignment_id"`
	AutomationID        string    `json:"automation_id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	IsActive            bool      `json:"is_active"`
	CreditsPerExecution int64     `json:"credits_per_execution"`
	AssignedAt          time.Time `json:"assigned_at"`
}

// GetClientAutomations lists the client's assignments joined with their
// automations. A dangling automation reference means the cascade on delete
// was broken and is treated as a hard error, not skipped.
func GetClientAutomations(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	var assignments []models.ClientAutomation
	if err := tx.Where("client_id = ?", client.Id).
		Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list assignments", "error": err.Error()})
	}

	views := make([]ClientAutomationView, 0, len(assignments))
	for _, assignment := range assignments {
		var automation models.Automation
		if err := tx.First(&automation, "id = ?", assignment.AutomationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusInternalServerError,
					"assignment references a deleted automation")
			}
			return err
		}
		views = append(views, ClientAutomationView{
			AssignmentID:        assignment.Id,
			AutomationID:        automation.Id,
			Name:                automation.Name,
			Description:         automation.Description,
			IsActive:            assignment.IsActive,
			CreditsPerExecution: assignment.CreditsPerExecution,
			AssignedAt:          assignment.AssignedAt,
		})
	}

	return c.JSON(fiber.Map{
		"automations": views,
		"message":     "success",
	})
}
