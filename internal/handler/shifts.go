package handler

import (
	"net/http"
	"strconv"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/middleware"
	"shoptill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShiftsHandler struct{ svc service.ShiftService }

func NewShiftsHandler(svc service.ShiftService) *ShiftsHandler { return &ShiftsHandler{svc: svc} }

// Open godoc
// @Summary Opens a shift on the session's register
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenShiftRequest true "Opening data"
// @Success 201 {object} dto.ShiftResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts [post]
func (h *ShiftsHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), sess, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Current godoc
// @Summary Returns the session's open shift
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ShiftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/current [get]
func (h *ShiftsHandler) Current(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Current(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Closes a shift and returns its closing report
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param body body dto.CloseShiftRequest true "Closing notes"
// @Success 200 {object} dto.ClosingReportResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/{id}/close [post]
func (h *ShiftsHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), sess, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Returns the closing report of a closed shift
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} dto.ClosingReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/{id}/report [get]
func (h *ShiftsHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary Lists past shifts
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param register_id query string false "Filter by register"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.ShiftListResponse
// @Router /v1/shifts [get]
func (h *ShiftsHandler) History(c *gin.Context) {
	var registerID *uuid.UUID
	if raw := c.Query("register_id"); raw != "" {
		rid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid register_id"))
			return
		}
		registerID = &rid
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.History(c.Request.Context(), registerID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
