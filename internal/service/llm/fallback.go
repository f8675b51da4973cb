package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/next-chat/internal/service/routing"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	ErrNotConfigured = errors.New("AI provider is not configured")
	ErrEmptyResponse = errors.New("empty response from model")
)

// Reply 模型回答及实际产生回答的模型
type Reply struct {
	Answer string
	Model  string
}

// ProviderError 主模型与备用模型均失败
type ProviderError struct {
	PrimaryModel  string
	FallbackModel string
	Primary       error
	Fallback      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("AI failed. Primary: %v, Fallback: %v", e.Primary, e.Fallback)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// Invoker 按路由表调用模型，主模型失败时切换一次备用模型
type Invoker struct {
	chatModel model.BaseChatModel
	routes    *routing.Table
	timeout   time.Duration
	handlers  []callbacks.Handler
}

// NewInvoker 创建调用器
// chatModel 可为 nil，此时每次调用返回 ErrNotConfigured
func NewInvoker(chatModel model.BaseChatModel, routes *routing.Table, timeout time.Duration, handlers ...callbacks.Handler) *Invoker {
	return &Invoker{
		chatModel: chatModel,
		routes:    routes,
		timeout:   timeout,
		handlers:  handlers,
	}
}

// Generate 使用类别对应的主模型生成回答，失败后用相同参数重试一次备用模型
func (i *Invoker) Generate(ctx context.Context, category routing.Category, messages []*schema.Message) (*Reply, error) {
	if i.chatModel == nil {
		return nil, ErrNotConfigured
	}

	route := i.routes.Resolve(category)

	log.Printf("[LLM] Using %s for %s", route.Primary, category)
	answer, err := i.call(ctx, route.Primary, route, messages)
	if err == nil {
		return &Reply{Answer: answer, Model: route.Primary}, nil
	}

	log.Printf("[LLM] Primary model %s failed: %v, trying fallback %s", route.Primary, err, route.Fallback)
	answer, fallbackErr := i.call(ctx, route.Fallback, route, messages)
	if fallbackErr == nil {
		return &Reply{Answer: answer, Model: route.Fallback}, nil
	}

	return nil, &ProviderError{
		PrimaryModel:  route.Primary,
		FallbackModel: route.Fallback,
		Primary:       err,
		Fallback:      fallbackErr,
	}
}

func (i *Invoker) call(ctx context.Context, modelName string, route routing.Route, messages []*schema.Message) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	if len(i.handlers) > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      modelName,
			Type:      "OpenAICompatible",
			Component: components.ComponentOfChatModel,
		}, i.handlers...)
	}

	resp, err := i.chatModel.Generate(ctx, messages,
		model.WithModel(modelName),
		model.WithTemperature(route.Temperature),
		model.WithMaxTokens(route.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}
