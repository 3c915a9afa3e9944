package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"automatisierung-backend/database"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"
	"automatisierung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TemplateInput struct {
	Name         string          `json:"name" validate:"required"`
	Slug         string          `json:"slug" validate:"required"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	PriceCents   int64           `json:"price_cents" validate:"gte=0"`
	PreviewUrl   string          `json:"preview_url" validate:"omitempty,url"`
	WorkflowJSON json.RawMessage `json:"workflow_json"`
	Published    bool            `json:"published"`
}

type TemplateUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	PreviewUrl  *string `json:"preview_url" validate:"omitempty,url"`
	Published   *bool   `json:"published"`
}

// GetTemplates is public: only published templates, workflow JSON omitted.
func GetTemplates(c *fiber.Ctx) error {
	query := database.DB.Where("published = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var templates []models.Template
	if err := query.Omit("workflow_json").
		Order("name ASC").Find(&templates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list templates", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"templates": templates,
		"message":   "success",
	})
}

func GetTemplateBySlug(c *fiber.Ctx) error {
	var template models.Template
	if err := database.DB.Where("slug = ? AND published = ?", c.Params("slug"), true).
		Omit("workflow_json").First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "template not found")
		}
		return err
	}
	return c.JSON(template)
}

func CreateTemplate(c *fiber.Ctx) error {
	var input TemplateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	template := models.Template{
		Name:         input.Name,
		Slug:         input.Slug,
		Description:  input.Description,
		Category:     input.Category,
		PriceCents:   input.PriceCents,
		PreviewUrl:   input.PreviewUrl,
		WorkflowJSON: []byte(input.WorkflowJSON),
		Published:    input.Published,
	}

	if err := tx.Create(&template).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "Could not create template", "error": err.Error()})
	}

	return c.Status(201).JSON(template)
}

func UpdateTemplate(c *fiber.Ctx) error {
	var input TemplateUpdateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&input)

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	var template models.Template
	if err := tx.First(&template, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "template not found")
		}
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.JSON(template)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := tx.Model(&template).Updates(updates).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "Could not update template", "error": err.Error()})
	}
	return c.JSON(template)
}

func DeleteTemplate(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	res := tx.Delete(&models.Template{}, "id = ?", c.Params("id"))
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not delete template", "error": res.Error.Error()})
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "template not found")
	}

	return c.JSON(fiber.Map{"message": "success"})
}
