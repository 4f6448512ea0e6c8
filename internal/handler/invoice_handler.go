package handler

import (
	"io"
	"net/http"

	"invoiceflow/internal/middleware"
	"invoiceflow/internal/model"
	"invoiceflow/internal/service"
	"invoiceflow/pkg/pagination"
	"invoiceflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes caps accepted invoice documents at 20 MB.
const maxUploadBytes = 20 << 20

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.POST("/upload", h.UploadInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.PUT("/:id/decision", middleware.RequireRole(model.RoleAdmin, model.RoleReviewer), h.DecideInvoice)
	}

	router.GET("/api/stats", h.GetStats)
}

// UploadInvoice accepts an invoice document and starts background processing
// @Summary      Upload invoice
// @Description  Accepts a PDF/PNG/JPEG invoice and queues it for extraction, matching, and fraud analysis
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Invoice document"
// @Success      202   {object}  response.Response{data=service.UploadResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/invoices/upload [post]
func (h *InvoiceHandler) UploadInvoice(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file upload: "+err.Error()))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "File too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read upload: "+err.Error()))
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read upload: "+err.Error()))
		return
	}

	result, err := h.invoiceService.Upload(c.Request.Context(), fileHeader.Filename, document)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, response.Accepted(result))
}

// GetInvoice returns one invoice with its decoded results and processing log
// @Summary      Get invoice
// @Description  Retrieves an invoice with its extraction, matching, fraud results, and processing log
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	detail, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Invoice not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// ListInvoices returns a paginated invoice summary list
// @Summary      List invoices
// @Description  Retrieves a paginated list of invoices, newest first
// @Tags         invoices
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 100)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// DeleteInvoice removes an invoice and its stored results
// @Summary      Delete invoice
// @Description  Deletes an invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Invoice not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{"message": "Invoice deleted"}))
}

// DecideInvoice records the reviewer's final disposition
// @Summary      Record reviewer decision
// @Description  Overrides or confirms the system recommendation for a finished invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Invoice ID"
// @Param        payload  body      service.DecisionRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceDetail}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/{id}/decision [put]
func (h *InvoiceHandler) DecideInvoice(c *gin.Context) {
	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	detail, err := h.invoiceService.Decide(c.Request.Context(), c.Param("id"), userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// GetStats returns aggregate processing counters
// @Summary      Get processing stats
// @Description  Returns total, completed, in-flight, and failed invoice counts
// @Tags         statistics
// @Produce      json
// @Success      200  {object}  response.Response{data=service.Stats}
// @Failure      500  {object}  response.Response
// @Router       /api/stats [get]
func (h *InvoiceHandler) GetStats(c *gin.Context) {
	stats, err := h.invoiceService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
