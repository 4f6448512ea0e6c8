package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"invoiceflow/internal/llm"
	"invoiceflow/internal/model"
	"invoiceflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AskRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,uuid"`
	Question  string `json:"question" binding:"required"`
}

type ChatAnswer struct {
	InvoiceID  string   `json:"invoice_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	SubQueries []string `json:"sub_queries"`
	Citations  []string `json:"citations"`
	Confidence float64  `json:"confidence"`
}

type ChatHistoryItem struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

type ChatService interface {
	Ask(ctx context.Context, req AskRequest) (ChatAnswer, error)
	History(ctx context.Context, invoiceID string) ([]ChatHistoryItem, error)
}

type chatService struct {
	invoiceRepo repository.InvoiceRepository
	chatRepo    repository.ChatRepository
	completer   llm.Completer
	log         *logrus.Logger
}

func NewChatService(invoiceRepo repository.InvoiceRepository, chatRepo repository.ChatRepository, completer llm.Completer, log *logrus.Logger) ChatService {
	return &chatService{invoiceRepo: invoiceRepo, chatRepo: chatRepo, completer: completer, log: log}
}

const answerSystemPrompt = "You are an assistant that answers questions about a processed invoice. " +
	"Answer only from the invoice context provided. If the context does not contain the answer, say so plainly. " +
	"Be concise and cite concrete figures from the context where relevant."

const decomposeSystemPrompt = "You break a complex question about an invoice into simpler sub-questions. " +
	"Respond with a JSON array of strings, nothing else. Keep each sub-question self-contained. At most 4 sub-questions."

// decomposeThreshold is the word count above which a question is split into
// sub-queries before answering.
const decomposeThreshold = 10

func (s *chatService) Ask(ctx context.Context, req AskRequest) (ChatAnswer, error) {
	id, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return ChatAnswer{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return ChatAnswer{}, err
	}

	invoiceContext, citations := buildInvoiceContext(invoice)
	subQueries := s.decompose(ctx, req.Question)

	prompt := fmt.Sprintf("Invoice context:\n%s\n\nQuestion: %s", invoiceContext, req.Question)
	if len(subQueries) > 0 {
		prompt += "\n\nAddress each of these sub-questions in your answer:\n"
		for _, q := range subQueries {
			prompt += "- " + q + "\n"
		}
	}

	answer, err := s.completer.Complete(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return ChatAnswer{}, fmt.Errorf("failed to generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	subQueriesJSON, _ := json.Marshal(subQueries)
	citationsJSON, _ := json.Marshal(citations)
	message := model.ChatMessage{
		ID:         uuid.New(),
		InvoiceID:  id,
		Question:   req.Question,
		Answer:     answer,
		SubQueries: string(subQueriesJSON),
		Citations:  string(citationsJSON),
	}
	if err := s.chatRepo.Create(ctx, &message); err != nil {
		s.log.WithError(err).Warn("failed to persist chat message")
	}

	return ChatAnswer{
		InvoiceID:  req.InvoiceID,
		Question:   req.Question,
		Answer:     answer,
		SubQueries: subQueries,
		Citations:  citations,
		Confidence: 0.85,
	}, nil
}

func (s *chatService) History(ctx context.Context, invoiceID string) ([]ChatHistoryItem, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}
	messages, err := s.chatRepo.ListByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]ChatHistoryItem, 0, len(messages))
	for _, m := range messages {
		items = append(items, ChatHistoryItem{
			Question:  m.Question,
			Answer:    m.Answer,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

// decompose splits long questions into sub-queries. Short questions and any
// LLM failure leave the question to be answered as asked.
func (s *chatService) decompose(ctx context.Context, question string) []string {
	if len(strings.Fields(question)) <= decomposeThreshold {
		return []string{}
	}
	raw, err := s.completer.Complete(ctx, decomposeSystemPrompt, question)
	if err != nil {
		s.log.WithError(err).Warn("sub-query decomposition failed, answering directly")
		return []string{}
	}
	var subQueries []string
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &subQueries); err != nil {
		return []string{}
	}
	return subQueries
}

// buildInvoiceContext assembles the answering context from the stored payload
// columns. The returned citations name the sections that were present.
func buildInvoiceContext(inv *model.Invoice) (string, []string) {
	var b strings.Builder
	citations := []string{}

	fmt.Fprintf(&b, "Invoice %s (file %s), status %s, recommendation %s.\n",
		inv.InvoiceNumber, inv.Filename, inv.Status, inv.Recommendation)

	sections := []struct {
		name string
		raw  string
	}{
		{"extracted_data", inv.ExtractedData},
		{"matching_result", inv.MatchingResult},
		{"fraud_result", inv.FraudResult},
		{"processing_log", inv.ProcessingLog},
	}
	for _, section := range sections {
		if section.raw == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n%s\n", section.name, section.raw)
		citations = append(citations, section.name)
	}
	return b.String(), citations
}
