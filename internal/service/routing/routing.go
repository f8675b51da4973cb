// Package routing 将任务类别映射到主模型、备用模型与生成参数
package routing

import (
	"github.com/ashwinyue/next-chat/internal/config"
)

// Category 任务类别
type Category string

const (
	CategoryVision   Category = "vision"
	CategoryDocument Category = "document"
	CategoryChat     Category = "chat"
)

// Route 单个类别的模型配置
type Route struct {
	Primary     string
	Fallback    string
	Temperature float32
	MaxTokens   int
}

// Table 路由表，构造后只读
type Table struct {
	routes map[Category]Route
}

// NewTable 从配置创建路由表
func NewTable(cfg *config.RoutingConfig) *Table {
	return &Table{
		routes: map[Category]Route{
			CategoryVision:   fromConfig(cfg.Vision),
			CategoryDocument: fromConfig(cfg.Document),
			CategoryChat:     fromConfig(cfg.Chat),
		},
	}
}

// Resolve 查找类别配置，未知类别使用 chat 配置
func (t *Table) Resolve(category Category) Route {
	if r, ok := t.routes[category]; ok {
		return r
	}
	return t.routes[CategoryChat]
}

func fromConfig(c config.RouteConfig) Route {
	return Route{
		Primary:     c.Model,
		Fallback:    c.Fallback,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}
