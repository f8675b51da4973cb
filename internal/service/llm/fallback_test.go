// Package llm 提供主备模型调用的单元测试
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashwinyue/next-chat/internal/config"
	"github.com/ashwinyue/next-chat/internal/service/routing"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// mockChatModel 按模型名返回结果的 Mock ChatModel
type mockChatModel struct {
	failures map[string]error
	nilFor   map[string]bool
	calls    []string
	options  []*model.Options
}

func newMockChatModel() *mockChatModel {
	return &mockChatModel{failures: map[string]error{}, nilFor: map[string]bool{}}
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := model.GetCommonOptions(&model.Options{}, opts...)
	name := ""
	if o.Model != nil {
		name = *o.Model
	}
	m.calls = append(m.calls, name)
	m.options = append(m.options, o)

	if err := m.failures[name]; err != nil {
		return nil, err
	}
	if m.nilFor[name] {
		return nil, nil
	}
	return &schema.Message{Role: schema.Assistant, Content: "answer from " + name}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func testTable() *routing.Table {
	return routing.NewTable(&config.RoutingConfig{
		Vision:   config.RouteConfig{Model: "vision-primary", Fallback: "vision-fallback", Temperature: 0.3, MaxTokens: 500},
		Document: config.RouteConfig{Model: "doc-primary", Fallback: "doc-fallback", Temperature: 0.2, MaxTokens: 1000},
		Chat:     config.RouteConfig{Model: "chat-primary", Fallback: "chat-fallback", Temperature: 0.7, MaxTokens: 500},
	})
}

func userMessages() []*schema.Message {
	return []*schema.Message{schema.UserMessage("Hello!")}
}

func TestInvoker_PrimarySucceeds(t *testing.T) {
	m := newMockChatModel()
	inv := NewInvoker(m, testTable(), time.Second)

	reply, err := inv.Generate(context.Background(), routing.CategoryChat, userMessages())
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if reply.Model != "chat-primary" {
		t.Errorf("Model = %q, want 'chat-primary'", reply.Model)
	}
	if reply.Answer != "answer from chat-primary" {
		t.Errorf("Answer = %q", reply.Answer)
	}
	if len(m.calls) != 1 {
		t.Errorf("calls = %v, fallback must not be invoked", m.calls)
	}
}

func TestInvoker_FallbackAfterPrimaryFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *mockChatModel)
	}{
		{"primary error", func(m *mockChatModel) { m.failures["doc-primary"] = errors.New("model decommissioned") }},
		{"primary nil response", func(m *mockChatModel) { m.nilFor["doc-primary"] = true }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newMockChatModel()
			tc.setup(m)
			inv := NewInvoker(m, testTable(), 0)

			reply, err := inv.Generate(context.Background(), routing.CategoryDocument, userMessages())
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if reply.Model != "doc-fallback" {
				t.Errorf("Model = %q, want 'doc-fallback'", reply.Model)
			}
			if len(m.calls) != 2 {
				t.Fatalf("calls = %v, want exactly 2", m.calls)
			}

			// 备用模型使用相同的生成参数
			for i, o := range m.options {
				if o.Temperature == nil || *o.Temperature != 0.2 {
					t.Errorf("call %d temperature = %v, want 0.2", i, o.Temperature)
				}
				if o.MaxTokens == nil || *o.MaxTokens != 1000 {
					t.Errorf("call %d max tokens = %v, want 1000", i, o.MaxTokens)
				}
			}
		})
	}
}

func TestInvoker_BothFail(t *testing.T) {
	m := newMockChatModel()
	m.failures["vision-primary"] = errors.New("primary timeout")
	m.failures["vision-fallback"] = errors.New("fallback quota exceeded")
	inv := NewInvoker(m, testTable(), 0)

	_, err := inv.Generate(context.Background(), routing.CategoryVision, userMessages())

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Fatalf("Generate() error = %v, want *ProviderError", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "primary timeout") || !strings.Contains(msg, "fallback quota exceeded") {
		t.Errorf("error = %q, want both failure texts", msg)
	}
	if !strings.HasPrefix(msg, "AI failed. Primary: ") {
		t.Errorf("error = %q", msg)
	}
	if pErr.PrimaryModel != "vision-primary" || pErr.FallbackModel != "vision-fallback" {
		t.Errorf("ProviderError models = %q/%q", pErr.PrimaryModel, pErr.FallbackModel)
	}
	if len(m.calls) != 2 {
		t.Errorf("calls = %v, want exactly 2", m.calls)
	}
}

func TestInvoker_UnknownCategoryUsesChat(t *testing.T) {
	m := newMockChatModel()
	inv := NewInvoker(m, testTable(), 0)

	reply, err := inv.Generate(context.Background(), routing.Category("other"), userMessages())
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if reply.Model != "chat-primary" {
		t.Errorf("Model = %q, want 'chat-primary'", reply.Model)
	}
}

func TestInvoker_NotConfigured(t *testing.T) {
	inv := NewInvoker(nil, testTable(), 0)

	_, err := inv.Generate(context.Background(), routing.CategoryChat, userMessages())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Generate() error = %v, want ErrNotConfigured", err)
	}
}

func TestNewChatModel_RequiresAPIKey(t *testing.T) {
	_, err := NewChatModel(context.Background(), &config.AIConfig{BaseURL: "http://localhost"}, "m")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewChatModel() error = %v, want ErrNotConfigured", err)
	}
}

// ========== OpenAI 兼容接口 ==========

// fakeCompletions 模拟 chat/completions 接口，failing 中的模型返回 500
type fakeCompletions struct {
	mu      sync.Mutex
	failing map[string]bool
	models  []string
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.models = append(f.models, req.Model)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.failing[req.Model] {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": "hi from " + req.Model},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
	})
}

func TestInvoker_OpenAICompatibleServer(t *testing.T) {
	fake := &fakeCompletions{failing: map[string]bool{"chat-primary": true}}
	server := httptest.NewServer(fake)
	defer server.Close()

	cm, err := NewChatModel(context.Background(), &config.AIConfig{
		APIKey:  "gsk_test",
		BaseURL: server.URL,
		Timeout: 5,
	}, "chat-primary")
	if err != nil {
		t.Fatalf("NewChatModel() unexpected error: %v", err)
	}

	inv := NewInvoker(cm, testTable(), 5*time.Second)
	reply, err := inv.Generate(context.Background(), routing.CategoryChat, userMessages())
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}

	if reply.Model != "chat-fallback" {
		t.Errorf("Model = %q, want 'chat-fallback'", reply.Model)
	}
	if reply.Answer != "hi from chat-fallback" {
		t.Errorf("Answer = %q", reply.Answer)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.models) != 2 || fake.models[0] != "chat-primary" || fake.models[1] != "chat-fallback" {
		t.Errorf("requested models = %v, want [chat-primary chat-fallback]", fake.models)
	}
}
