package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/autoescola/admin-service/internal/statements"
	apperrors "github.com/autoescola/admin-service/pkg/util"
)

// StatementsHandler exposes the financial statements endpoints.
type StatementsHandler struct {
	module *statements.Module
}

// NewStatementsHandler constructs the handler.
func NewStatementsHandler(module *statements.Module) *StatementsHandler {
	return &StatementsHandler{module: module}
}

// Units handles GET /api/unidades.
func (h *StatementsHandler) Units(c *fiber.Ctx) error {
	units, err := h.module.Units()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": units})
}

// Statement handles GET /api/extrato.
func (h *StatementsHandler) Statement(c *fiber.Ctx) error {
	unit := c.Query("unidade")
	month := c.Query("mes")
	if unit == "" || month == "" {
		return apperrors.NewValidationError("unidade and mes query parameters required", nil)
	}

	entries, err := h.module.Statement(c.Context(), unit, month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}
