package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/model"
	"cashbook/internal/service"
)

// SheetHandler handles sheet endpoints.
type SheetHandler struct {
	sheetService  service.SheetService
	exportService service.ExportService
}

// NewSheetHandler creates a new sheet handler.
func NewSheetHandler(sheetService service.SheetService, exportService service.ExportService) *SheetHandler {
	return &SheetHandler{sheetService: sheetService, exportService: exportService}
}

// SheetRequest is the full client-owned state of a sheet. The owner is always
// taken from the session, never from the body.
type SheetRequest struct {
	SheetName    string              `json:"sheetName" validate:"max=255"`
	Transactions []model.Transaction `json:"transactions" validate:"dive"`
	// Totals are recomputed from the transactions when omitted.
	Totals *model.Totals `json:"totals"`
}

func (r SheetRequest) input() service.SheetInput {
	in := service.SheetInput{
		Name:         r.SheetName,
		Transactions: r.Transactions,
	}
	if r.Totals != nil {
		in.Totals = *r.Totals
	} else {
		in.Totals = model.ComputeTotals(r.Transactions)
	}
	return in
}

// SheetCreatedResponse is returned when a sheet is created.
type SheetCreatedResponse struct {
	Message string    `json:"message"`
	SheetID uuid.UUID `json:"sheetId"`
}

// CreateSheet godoc
// @Summary Create a sheet owned by the session user
// @Tags sheets
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body SheetRequest true "Sheet"
// @Success 201 {object} SheetCreatedResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sheets [post]
func (h *SheetHandler) CreateSheet(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return errorResponse(err)
	}
	var req SheetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sheet, err := h.sheetService.Create(c.Request().Context(), identity.UserID, req.input())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, SheetCreatedResponse{
		Message: "Sheet saved successfully",
		SheetID: sheet.ID,
	})
}

// ListSheets godoc
// @Summary List a user's sheets
// @Tags sheets
// @Produce json
// @Security CookieAuth
// @Param userId path string true "User ID"
// @Success 200 {array} model.Sheet
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sheets/{userId} [get]
func (h *SheetHandler) ListSheets(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return errorResponse(err)
	}
	// an unparseable id can never be the requester
	ownerID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return errorResponse(apperrors.ErrForbidden)
	}

	sheets, err := h.sheetService.ListByOwner(c.Request().Context(), identity.UserID, ownerID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, sheets)
}

// GetSheet godoc
// @Summary Get a sheet
// @Tags sheets
// @Produce json
// @Security CookieAuth
// @Param sheetId path string true "Sheet ID"
// @Success 200 {object} model.Sheet
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sheet/{sheetId} [get]
func (h *SheetHandler) GetSheet(c echo.Context) error {
	identity, sheetID, err := h.target(c)
	if err != nil {
		return err
	}
	sheet, err := h.sheetService.Get(c.Request().Context(), identity, sheetID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, sheet)
}

// UpdateSheet godoc
// @Summary Replace a sheet's name, transactions and totals
// @Tags sheets
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param sheetId path string true "Sheet ID"
// @Param request body SheetRequest true "Sheet"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sheets/{sheetId} [put]
func (h *SheetHandler) UpdateSheet(c echo.Context) error {
	identity, sheetID, err := h.target(c)
	if err != nil {
		return err
	}
	var req SheetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.sheetService.Replace(c.Request().Context(), identity, sheetID, req.input()); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Sheet updated successfully"})
}

// DeleteSheet godoc
// @Summary Delete a sheet
// @Tags sheets
// @Produce json
// @Security CookieAuth
// @Param sheetId path string true "Sheet ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sheets/{sheetId} [delete]
func (h *SheetHandler) DeleteSheet(c echo.Context) error {
	identity, sheetID, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.sheetService.Delete(c.Request().Context(), identity, sheetID); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Sheet deleted successfully"})
}

// ExportSheet godoc
// @Summary Download a sheet as a spreadsheet
// @Tags sheets
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Security CookieAuth
// @Param sheetId path string true "Sheet ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sheet/{sheetId}/export [get]
func (h *SheetHandler) ExportSheet(c echo.Context) error {
	identity, sheetID, err := h.target(c)
	if err != nil {
		return err
	}
	sheet, err := h.sheetService.Get(c.Request().Context(), identity, sheetID)
	if err != nil {
		return errorResponse(err)
	}

	out, err := h.exportService.Render(sheet, c.QueryParam("format"))
	if err != nil {
		return errorResponse(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", out.Filename))
	return c.Blob(http.StatusOK, out.ContentType, out.Body)
}

// target resolves the requester and the :sheetId path parameter. An
// unparseable id cannot name a stored sheet and is reported as not found.
func (h *SheetHandler) target(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	identity, err := identityFrom(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, errorResponse(err)
	}
	sheetID, err := uuid.Parse(c.Param("sheetId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errorResponse(apperrors.ErrSheetNotFound)
	}
	return identity.UserID, sheetID, nil
}
