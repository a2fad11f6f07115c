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

type ReceiptsHandler struct {
	svc      service.ReceiptService
	payments service.PaymentService
}

func NewReceiptsHandler(svc service.ReceiptService, payments service.PaymentService) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc, payments: payments}
}

// AddItem godoc
// @Summary Adds a product to the shift's draft receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AddItemRequest true "Product and quantity"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/items [post]
func (h *ReceiptsHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), sess, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateQuantity godoc
// @Summary Changes a line's quantity; zero or below removes it
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Param itemId path string true "Item ID"
// @Param body body dto.UpdateQuantityRequest true "New quantity"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/receipts/{id}/items/{itemId} [patch]
func (h *ReceiptsHandler) UpdateQuantity(c *gin.Context) {
	receiptID, itemID, ok := pathIDs(c)
	if !ok {
		return
	}
	var req dto.UpdateQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, sok := middleware.GetSession(c)
	if !sok {
		return
	}
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), sess, receiptID, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyDiscount godoc
// @Summary Applies a percentage discount to a line
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Param itemId path string true "Item ID"
// @Param body body dto.ApplyDiscountRequest true "Discount percent (0–100)"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/receipts/{id}/items/{itemId}/discount [patch]
func (h *ReceiptsHandler) ApplyDiscount(c *gin.Context) {
	receiptID, itemID, ok := pathIDs(c)
	if !ok {
		return
	}
	var req dto.ApplyDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, sok := middleware.GetSession(c)
	if !sok {
		return
	}
	resp, err := h.svc.ApplyDiscount(c.Request.Context(), sess, receiptID, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary Removes a line from a draft receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/{id}/items/{itemId} [delete]
func (h *ReceiptsHandler) RemoveItem(c *gin.Context) {
	receiptID, itemID, ok := pathIDs(c)
	if !ok {
		return
	}
	sess, sok := middleware.GetSession(c)
	if !sok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), sess, receiptID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancels a draft receipt
// @Tags receipts
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/receipts/{id} [delete]
func (h *ReceiptsHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), sess, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Pay godoc
// @Summary Pays a draft receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Param body body dto.PayReceiptRequest true "Payment data"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/receipts/{id}/pay [post]
func (h *ReceiptsHandler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.PayReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.payments.Pay(c.Request.Context(), sess, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current godoc
// @Summary Returns the shift's in-flight draft receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/current [get]
func (h *ReceiptsHandler) Current(c *gin.Context) {
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

// Get godoc
// @Summary Fetches a receipt by id, or by number via ?number=
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/{id} [get]
func (h *ReceiptsHandler) Get(c *gin.Context) {
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

// FindByNumber godoc
// @Summary Fetches a receipt by its sequential number
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param number query int true "Receipt number"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts [get]
func (h *ReceiptsHandler) FindByNumber(c *gin.Context) {
	number, err := strconv.Atoi(c.Query("number"))
	if err != nil || number < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid number"))
		return
	}
	resp, err := h.svc.FindByNumber(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pathIDs(c *gin.Context) (receiptID, itemID uuid.UUID, ok bool) {
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err = uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid item id"))
		return uuid.Nil, uuid.Nil, false
	}
	return receiptID, itemID, true
}
