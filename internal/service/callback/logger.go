// Package callback 提供模型调用的 Eino 日志回调
package callback

import (
	"context"
	"log"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type startTimeKey struct{}

// Logger 日志回调处理器
// 实现 callbacks.Handler，记录每次模型调用的模型名、耗时与 token 用量
type Logger struct {
	EnableDebug bool // 调试模式下额外记录输入输出摘要
}

var _ callbacks.Handler = (*Logger)(nil)

// NewLogger 创建日志回调处理器
func NewLogger(enableDebug bool) *Logger {
	return &Logger{EnableDebug: enableDebug}
}

// OnStart 模型调用开始
func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.EnableDebug {
		in := model.ConvCallbackInput(input)
		messages := 0
		if in != nil {
			messages = len(in.Messages)
		}
		log.Printf("[Eino] OnStart: name=%s component=%s model=%s messages=%d",
			runName(info), runComponent(info), configModel(in), messages)
	}
	return context.WithValue(ctx, startTimeKey{}, time.Now())
}

// OnEnd 模型调用成功
func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	out := model.ConvCallbackOutput(output)

	var prompt, completion int
	if out != nil && out.TokenUsage != nil {
		prompt = out.TokenUsage.PromptTokens
		completion = out.TokenUsage.CompletionTokens
	}

	log.Printf("[Eino] OnEnd: name=%s latency=%v prompt_tokens=%d completion_tokens=%d",
		runName(info), elapsed(ctx), prompt, completion)

	if l.EnableDebug && out != nil && out.Message != nil {
		log.Printf("[Eino] Output: %s", truncate(out.Message.Content, 200))
	}
	return ctx
}

// OnError 模型调用出错
func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	log.Printf("[Eino] Error: name=%s component=%s latency=%v error=%v",
		runName(info), runComponent(info), elapsed(ctx), err)
	return ctx
}

// OnStartWithStreamInput 流式输入开始
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	if l.EnableDebug {
		log.Printf("[Eino] OnStartWithStreamInput: name=%s", runName(info))
	}
	return ctx
}

// OnEndWithStreamOutput 流式输出结束
func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	if l.EnableDebug {
		log.Printf("[Eino] OnEndWithStreamOutput: name=%s", runName(info))
	}
	return ctx
}

func runName(info *callbacks.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}

func runComponent(info *callbacks.RunInfo) string {
	if info == nil {
		return ""
	}
	return string(info.Component)
}

func configModel(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
