package handler

import (
	"net/http"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/middleware"
	"shoptill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReturnsHandler struct{ svc service.ReturnService }

func NewReturnsHandler(svc service.ReturnService) *ReturnsHandler { return &ReturnsHandler{svc: svc} }

// Create godoc
// @Summary Creates a return, receipt-linked or ad hoc
// @Tags returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateReturnRequest true "Return lines"
// @Success 201 {object} dto.ReturnResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/returns [post]
func (h *ReturnsHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), sess, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Settle godoc
// @Summary Settles a pending return through a payment method
// @Tags returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Return ID"
// @Param body body dto.SettleReturnRequest true "Settlement data"
// @Success 200 {object} dto.ReturnResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/returns/{id}/settle [post]
func (h *ReturnsHandler) Settle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.SettleReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Settle(c.Request.Context(), sess, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Fetches a return by id
// @Tags returns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Return ID"
// @Success 200 {object} dto.ReturnResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/returns/{id} [get]
func (h *ReturnsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
