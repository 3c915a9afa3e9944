package controllers

import (
	"errors"

	"automatisierung-backend/database"
	"automatisierung-backend/ledger"
	"automatisierung-backend/middlewares"
	"automatisierung-backend/models"

	"github.com/gofiber/fiber/v2"
)

type CreditInput struct {
	Amount          int64  `json:"amount" validate:"required"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=purchase refund adjustment"`
	Notes           string `json:"notes"`
}

// recordCredit books one entry for the given account. Positive amounts are
// recorded directly; negative amounts go through the conditional debit so
// the fold can never be driven below zero.
func recordCredit(c *fiber.Ctx, account ledger.Account, input CreditInput) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	entry := ledger.Entry{
		Amount:          input.Amount,
		TransactionType: input.TransactionType,
		Notes:           input.Notes,
	}

	var id string
	if input.Amount < 0 {
		id, err = ledger.Debit(tx, account, -input.Amount, entry)
	} else {
		id, err = account.Record(tx, entry)
	}
	if errors.Is(err, ledger.ErrInsufficientCredits) {
		return fiber.NewError(fiber.StatusPaymentRequired, "insufficient credits")
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not record transaction", "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"id":      id,
		"message": "success",
	})
}

func GetCreditBalance(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	account := ledger.UserAccount{UserID: c.Locals("userID").(string)}
	balance, err := account.Balance(tx)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not compute balance", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"balance": balance})
}

func GetCredits(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	var credits []models.Credit
	if err := tx.Where("user_id = ?", c.Locals("userID").(string)).
		Order("created_at DESC").Find(&credits).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list credits", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"credits": credits,
		"message": "success",
	})
}

func CreateCredit(c *fiber.Ctx) error {
	var input CreditInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	return recordCredit(c, ledger.UserAccount{UserID: c.Locals("userID").(string)}, input)
}

func GetClientCreditBalance(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	balance, err := ledger.ClientAccount{ClientID: client.Id}.Balance(tx)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not compute balance", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"balance": balance})
}

func GetClientCredits(c *fiber.Ctx) error {
	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	var credits []models.ClientCredit
	if err := tx.Where("client_id = ?", client.Id).
		Order("created_at DESC").Find(&credits).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not list client credits", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"credits": credits,
		"message": "success",
	})
}

func CreateClientCredit(c *fiber.Ctx) error {
	var input CreditInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	tx, err := database.FromCtx(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Database error", "error": err.Error()})
	}

	client, err := loadOwnedClient(tx, c.Params("id"), c.Locals("userID").(string))
	if err != nil {
		return err
	}

	return recordCredit(c, ledger.ClientAccount{ClientID: client.Id}, input)
}
