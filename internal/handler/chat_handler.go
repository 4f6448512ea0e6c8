package handler

import (
	"net/http"

	"invoiceflow/internal/service"
	"invoiceflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/api/chat")
	{
		chat.POST("/ask", h.Ask)
		chat.GET("/:invoice_id/history", h.History)
	}
}

// Ask answers a natural-language question about a processed invoice
// @Summary      Ask about an invoice
// @Description  Answers a question using the invoice's stored extraction, matching, and fraud results
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AskRequest  true  "Question Payload"
// @Success      200      {object}  response.Response{data=service.ChatAnswer}
// @Failure      400      {object}  response.Response
// @Router       /api/chat/ask [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	var req service.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	answer, err := h.chatService.Ask(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, answer))
}

// History lists past Q&A exchanges for an invoice
// @Summary      Chat history
// @Description  Returns previous questions and answers for an invoice, oldest first
// @Tags         chat
// @Produce      json
// @Param        invoice_id  path      string  true  "Invoice ID"
// @Success      200         {object}  response.Response{data=[]service.ChatHistoryItem}
// @Failure      400         {object}  response.Response
// @Router       /api/chat/{invoice_id}/history [get]
func (h *ChatHandler) History(c *gin.Context) {
	items, err := h.chatService.History(c.Request.Context(), c.Param("invoice_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}
