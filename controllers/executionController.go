package controllers

import (
	"errors"

	"automatisierung-backend/database"
	"automatisierung-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func GetExecutions(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	query := tx.Where("user_id = ?", c.Locals("userID").(string))
	if automationID := c.Query("automation_id"); automationID != "" {
		query = query.Where("automation_id = ?", automationID)
	}

	var executions []models.Execution
	if err := query.Order("started_at DESC").Limit(200).Find(&executions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list executions", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"executions": executions,
		"message":    "success",
	})
}

func GetExecution(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	var execution models.Execution
	if err := tx.First(&execution, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "execution not found")
		}
		return err
	}
	if execution.UserID != c.Locals("userID").(string) {
		return fiber.NewError(fiber.StatusForbidden, "not the owner of this execution")
	}

	return c.JSON(execution)
}

func GetClientExecutions(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	var executions []models.ClientExecution
	if err := tx.Where("client_id = ?", client.Id).
		Order("started_at DESC").Limit(200).Find(&executions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list client executions", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"executions": executions,
		"message":    "success",
	})
}
