package controllers

import (
	"errors"
	"time"

	"automatisierung-backend/database"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"
	"automatisierung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClientInput struct {
	CompanyName string `json:"company_name" validate:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`
}

type ClientUpdateInput struct {
	CompanyName *string `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	Notes       *string `json:"notes"`
}

// loadOwnedClient fetches the client and enforces ownership.
func loadOwnedClient(tx *gorm.DB, id, userID string) (models.Client, error) {
	var client models.Client
	if err := tx.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return client, fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		return client, err
	}
	if client.UserID != userID {
		return client, fiber.NewError(fiber.StatusForbidden, "not the owner of this client")
	}
	return client, nil
}

func CreateClient(c *fiber.Ctx) error {
	var input ClientInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client := models.Client{
		CompanyName: input.CompanyName,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Notes:       input.Notes,
		UserID:      c.Locals("userID").(string),
	}

	if err := tx.Create(&client).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not create client", "error": err.Error()})
	}

	return c.Status(201).JSON(client)
}

func GetClients(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	var clients []models.Client
	if err := tx.Where("user_id = ?", c.Locals("userID").(string)).
		Order("company_name ASC").Find(&clients).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list clients", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"clients": clients,
		"message": "success",
	})
}

func GetClient(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}
	return c.JSON(client)
}

func UpdateClient(c *fiber.Ctx) error {
	var input ClientUpdateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&input)

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.JSON(client)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := tx.Model(&client).Updates(updates).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "Could not update client", "error": err.Error()})
	}
	return c.JSON(client)
}

// DeleteClient removes the client and everything scoped to it:
// assignments, ledger entries and execution history.
func DeleteClient(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	if err := tx.Where("client_id = ?", client.Id).Delete(&models.ClientAutomation{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete assignments", "error": err.Error()})
	}
	if err := tx.Where("client_id = ?", client.Id).Delete(&models.ClientCredit{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete client credits", "error": err.Error()})
	}
	if err := tx.Where("client_id = ?", client.Id).Delete(&models.ClientExecution{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete client executions", "error": err.Error()})
	}
	if err := tx.Delete(&client).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete client", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "success"})
}
