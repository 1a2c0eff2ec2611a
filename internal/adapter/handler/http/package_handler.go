package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/usecase"
)

type PackageHandler struct {
	packages *usecase.PackageService
	logger   *zap.Logger
}

func NewPackageHandler(packages *usecase.PackageService, logger *zap.Logger) *PackageHandler {
	return &PackageHandler{
		packages: packages,
		logger:   logger,
	}
}

type PackageRequest struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	Currency        string `json:"currency"`
	BillingInterval string `json:"billing_interval" validate:"required,oneof=day week month year"`
	IntervalCount   int    `json:"interval_count" validate:"omitempty,gt=0"`
	Recurring       bool   `json:"recurring"`
}

func (r PackageRequest) toInput() usecase.PackageInput {
	return usecase.PackageInput{
		Name:            r.Name,
		Description:     r.Description,
		Amount:          r.Amount,
		Currency:        r.Currency,
		BillingInterval: r.BillingInterval,
		IntervalCount:   r.IntervalCount,
		Recurring:       r.Recurring,
	}
}

func (h *PackageHandler) Create(c echo.Context) error {
	var req PackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	pkg, err := h.packages.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusCreated, pkg)
}

func (h *PackageHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid package id"})
	}

	var req PackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	pkg, err := h.packages.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, pkg)
}

func (h *PackageHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid package id"})
	}

	if err := h.packages.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *PackageHandler) List(c echo.Context) error {
	pkgs, err := h.packages.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, pkgs)
}

func (h *PackageHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid package id"})
	}

	pkg, err := h.packages.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, pkg)
}
