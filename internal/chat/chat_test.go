package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/afjltd/quotedesk/internal/config"
	"github.com/afjltd/quotedesk/internal/extractor"
	"github.com/afjltd/quotedesk/internal/ledger"
	"github.com/afjltd/quotedesk/internal/llm"
	"github.com/afjltd/quotedesk/internal/pricing"
	"github.com/afjltd/quotedesk/internal/ratelimit"
)

type fakeCompleter struct {
	reply string
	err   error
	last  llm.CompletionRequest
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func testHandler(t *testing.T, completer Completer) (*chi.Mux, ledger.Store) {
	t.Helper()
	store, err := ledger.NewFileStore(filepath.Join(t.TempDir(), "quote-log.jsonl"), 0)
	if err != nil {
		t.Fatal(err)
	}
	engine := pricing.NewEngine(pricing.DefaultRules())
	pipeline := extractor.NewPipeline(engine, store, "Please call the office for a quote.")
	h := NewHandler(completer, pipeline, ratelimit.New(), config.DefaultConfig().Chat, "test-model")

	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r, store
}

func postChat(router http.Handler, ip string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding reply: %v (%s)", err, w.Body.String())
	}
	return resp.Reply
}

func TestChatPlainReply(t *testing.T) {
	completer := &fakeCompleter{reply: "We cover airports across the UK. Which one are you flying from?"}
	router, _ := testHandler(t, completer)

	w := postChat(router, "203.0.113.10", `{"message":"Do you do airport runs?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeReply(t, w); got != completer.reply {
		t.Errorf("reply should pass through unchanged, got %q", got)
	}
}

func TestChatRendersQuoteTag(t *testing.T) {
	completer := &fakeCompleter{
		reply: `Here you go! [QUOTE_REQUEST:{"service":"private-hire","pickup":"B15 2TT","destination":"Manchester","date":"2026-03-14","time":"09:30","passengers":12,"return":true,"return_date":"2026-03-14"}]`,
	}
	router, store := testHandler(t, completer)

	w := postChat(router, "203.0.113.11", `{"message":"12 of us, B15 to Manchester, back same day on 14 March"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	reply := decodeReply(t, w)
	if strings.Contains(reply, "QUOTE_REQUEST") {
		t.Fatalf("raw tag leaked to customer: %q", reply)
	}
	if !strings.Contains(reply, "£216-£264") {
		t.Errorf("expected rendered price band, got %q", reply)
	}

	entries, err := store.ReadAll(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Source != ledger.SourceConversational {
		t.Fatalf("expected one conversational entry, got %+v", entries)
	}
}

func TestChatValidation(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	router, _ := testHandler(t, completer)

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":"   "}`},
		{"html only", `{"message":"<br> <div></div>"}`},
		{"too long", fmt.Sprintf(`{"message":%q}`, strings.Repeat("a", 501))},
		{"history too long", fmt.Sprintf(`{"message":"hi","history":[%s]}`,
			strings.TrimSuffix(strings.Repeat(`{"role":"user","content":"x"},`, 21), ","))},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		w := postChat(router, "203.0.113.12", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, w.Code)
		}
	}
	if completer.calls != 0 {
		t.Errorf("invalid requests should never reach the LLM, got %d calls", completer.calls)
	}
}

func TestChatHistoryWindow(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	router, _ := testHandler(t, completer)

	var items []string
	for i := 0; i < 14; i++ {
		items = append(items, fmt.Sprintf(`{"role":"user","content":"message %d"}`, i))
	}
	body := fmt.Sprintf(`{"message":"latest","history":[%s]}`, strings.Join(items, ","))

	w := postChat(router, "203.0.113.13", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// System prompt + last 10 history items + the new message.
	if len(completer.last.Messages) != 12 {
		t.Fatalf("expected 12 messages sent to LLM, got %d", len(completer.last.Messages))
	}
	if completer.last.Messages[0].Role != llm.RoleSystem {
		t.Error("first message should be the system prompt")
	}
	if completer.last.Messages[1].Content != "message 4" {
		t.Errorf("history should keep the most recent items, got %q", completer.last.Messages[1].Content)
	}
	if completer.last.Messages[11].Content != "latest" {
		t.Errorf("last message should be the new one, got %q", completer.last.Messages[11].Content)
	}
	if completer.last.MaxTokens != 300 {
		t.Errorf("expected configured token cap, got %d", completer.last.MaxTokens)
	}
}

func TestChatLLMFailureBecomesFriendlyReply(t *testing.T) {
	completer := &fakeCompleter{err: &llm.APIError{Provider: "anthropic", Status: 500, Message: "internal"}}
	router, _ := testHandler(t, completer)

	w := postChat(router, "203.0.113.14", `{"message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("LLM failure should still return 200, got %d", w.Code)
	}
	reply := decodeReply(t, w)
	if reply != errorReply {
		t.Errorf("expected the friendly error reply, got %q", reply)
	}
	if strings.Contains(reply, "internal") {
		t.Error("provider error detail must not leak")
	}
}

func TestChatPerMinuteLimit(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	router, _ := testHandler(t, completer)

	for i := 0; i < 5; i++ {
		if w := postChat(router, "203.0.113.15", `{"message":"hi"}`); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := postChat(router, "203.0.113.15", `{"message":"hi"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th request in a minute should be limited, got %d", w.Code)
	}
	if got := decodeReply(t, w); got != rateLimitReply {
		t.Errorf("limited request should carry the rate limit reply, got %q", got)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Another client is unaffected.
	if w := postChat(router, "203.0.113.16", `{"message":"hi"}`); w.Code != http.StatusOK {
		t.Errorf("other clients should not be limited, got %d", w.Code)
	}
}

func TestChatGlobalLimit(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	store, err := ledger.NewFileStore(filepath.Join(t.TempDir(), "quote-log.jsonl"), 0)
	if err != nil {
		t.Fatal(err)
	}
	pipeline := extractor.NewPipeline(pricing.NewEngine(pricing.DefaultRules()), store, "call us")
	cfg := config.DefaultConfig().Chat
	cfg.GlobalHourlyLimit = 2
	h := NewHandler(completer, pipeline, ratelimit.New(), cfg, "test-model")
	router := chi.NewRouter()
	RegisterRoutes(router, h)

	// Distinct clients so per-client windows never trip.
	for i := 0; i < 2; i++ {
		ip := fmt.Sprintf("203.0.113.%d", 20+i)
		if w := postChat(router, ip, `{"message":"hi"}`); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := postChat(router, "203.0.113.30", `{"message":"hi"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("request past the global cap should be limited, got %d", w.Code)
	}
	if got := decodeReply(t, w); got != rateLimitReply {
		t.Errorf("limited request should carry the rate limit reply, got %q", got)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
