package controllers

import (
	"automatisierung-backend/database"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"
	"automatisierung-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ContactInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company"`
	Message string `json:"message" validate:"required,min=10"`
	Source  string `json:"source"`
}

// CreateContactSubmission is the public contact form endpoint.
func CreateContactSubmission(c *fiber.Ctx) error {
	var input ContactInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	submission := models.ContactSubmission{
		Name:    input.Name,
		Email:   input.Email,
		Company: input.Company,
		Message: input.Message,
		Source:  input.Source,
	}

	if err := database.DB.Create(&submission).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not save submission", "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"id":      submission.Id,
		"message": "success",
	})
}

func GetContactSubmissions(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	query := tx.Model(&models.ContactSubmission{})
	if c.Query("handled") == "false" {
		query = query.Where("handled = ?", false)
	}

	var submissions []models.ContactSubmission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list submissions", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"submissions": submissions,
		"message":     "success",
	})
}

func MarkContactSubmissionHandled(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	res := tx.Model(&models.ContactSubmission{}).
		Where("id = ?", c.Params("id")).
		Update("handled", true)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not update submission", "error": res.Error.Error()})
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "submission not found")
	}

	return c.JSON(fiber.Map{"message": "success"})
}
