// Package chat exposes the conversational assistant endpoint. It layers
// per-client and global rate limits in front of the LLM, sanitizes
// inbound messages, and pipes every reply through the quote extractor so
// customers only ever see rendered prices.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/afjltd/quotedesk/internal/config"
	"github.com/afjltd/quotedesk/internal/extractor"
	"github.com/afjltd/quotedesk/internal/llm"
	"github.com/afjltd/quotedesk/internal/ratelimit"
)

// Completer is the slice of the LLM surface the handler needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

const historyItemMaxLen = 1000

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type historyItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []historyItem `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Handler serves the chat endpoint.
type Handler struct {
	completer Completer
	pipeline  *extractor.Pipeline
	limiter   *ratelimit.Limiter
	global    *ratelimit.GlobalCounter
	cfg       config.ChatConfig
	model     string
}

func NewHandler(completer Completer, pipeline *extractor.Pipeline, limiter *ratelimit.Limiter, cfg config.ChatConfig, model string) *Handler {
	return &Handler{
		completer: completer,
		pipeline:  pipeline,
		limiter:   limiter,
		global:    ratelimit.NewGlobalCounter(cfg.GlobalHourlyLimit, ratelimit.ChatHour.Window),
		cfg:       cfg,
		model:     model,
	}
}

// RegisterRoutes mounts the chat endpoint on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	// Per-client minute and hour windows, then the shared hourly cap
	// protecting LLM spend.
	if res := h.limiter.Check(r, "chat-min", ratelimit.ChatMinute); !res.Allowed {
		denyChat(w, res)
		return
	}
	if res := h.limiter.Check(r, "chat-hr", ratelimit.ChatHour); !res.Allowed {
		denyChat(w, res)
		return
	}
	if ok, resetAt := h.global.Allow(); !ok {
		denyChat(w, ratelimit.Result{ResetAt: resetAt})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	message := sanitize(req.Message)
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if len([]rune(message)) > h.cfg.MaxMessageLength {
		http.Error(w, "message too long", http.StatusBadRequest)
		return
	}
	if len(req.History) > h.cfg.MaxHistoryItems {
		http.Error(w, "history too long", http.StatusBadRequest)
		return
	}

	messages := h.buildMessages(req.History, message)
	resp, err := h.completer.Complete(r.Context(), llm.CompletionRequest{
		Model:       h.model,
		Messages:    messages,
		MaxTokens:   h.cfg.MaxResponseTokens,
		Temperature: 0.7,
	})
	if err != nil {
		// The widget renders any reply as assistant text, so failures
		// go out as a normal message rather than an error status.
		log.Printf("chat: completion failed: %v", err)
		writeReply(w, errorReply)
		return
	}

	writeReply(w, h.pipeline.Process(resp.Content))
}

// buildMessages assembles the prompt: system, the most recent history
// items with oversized entries trimmed, then the new message.
func (h *Handler) buildMessages(history []historyItem, message string) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	items := history
	if len(items) > h.cfg.HistorySentToLLM {
		items = items[len(items)-h.cfg.HistorySentToLLM:]
	}
	for _, item := range items {
		role := llm.RoleUser
		if item.Role == "assistant" {
			role = llm.RoleAssistant
		}
		content := sanitize(item.Content)
		if runes := []rune(content); len(runes) > historyItemMaxLen {
			content = string(runes[:historyItemMaxLen])
		}
		if content == "" {
			continue
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

func sanitize(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

func denyChat(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(ratelimit.RetryAfter(res.ResetAt)))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(chatResponse{Reply: rateLimitReply})
}

func writeReply(w http.ResponseWriter, reply string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(chatResponse{Reply: reply})
}
