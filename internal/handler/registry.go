package handler

import (
	"net/http"

	"shoptill/internal/middleware"
	"shoptill/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistryHandler struct{ svc service.RegistryService }

func NewRegistryHandler(svc service.RegistryService) *RegistryHandler {
	return &RegistryHandler{svc: svc}
}

// Methods godoc
// @Summary Lists the payment methods usable on the session's register
// @Tags registry
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PaymentMethodResponse
// @Router /v1/payment-methods [get]
func (h *RegistryHandler) Methods(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Methods(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Products godoc
// @Summary Lists the active product catalog
// @Tags registry
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *RegistryHandler) Products(c *gin.Context) {
	resp, err := h.svc.Products(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProductByBarcode godoc
// @Summary Resolves a product by barcode
// @Tags registry
// @Produce json
// @Security BearerAuth
// @Param barcode path string true "Barcode"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/barcode/{barcode} [get]
func (h *RegistryHandler) ProductByBarcode(c *gin.Context) {
	resp, err := h.svc.FindProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
