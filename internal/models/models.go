package models

import (
	"fmt"
	"time"
)

// Side 定义了订单方向
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// GridConfig 定义了单个策略变体的网格参数。
// MinPrice/MaxPrice 会被 rescale 重写并回写到配置文件中，属于跨周期共享的可变状态。
type GridConfig struct {
	InstID          string  `json:"inst_id"`                    // 产品ID，如 "BTC-USDT"
	MinPrice        float64 `json:"min_price"`                  // 网格下边界
	MaxPrice        float64 `json:"max_price"`                  // 网格上边界
	GridCount       int     `json:"grid_count"`                 // 网格档位数量，必须 >= 2
	SizePerGrid     float64 `json:"size_per_grid"`              // 每格下单数量（所有档位相同）
	TrailingPercent float64 `json:"trailing_percent,omitempty"` // 触发 rescale 的边界比例，默认 0.1
	MaxPosition     float64 `json:"max_position,omitempty"`     // 持仓上限，0 表示不限制
	MinProfitGap    float64 `json:"min_profit_gap,omitempty"`   // 卖单最小利润率，0 表示不保护
	DeadZoneBuffer  float64 `json:"dead_zone_buffer,omitempty"` // 当前价附近不挂单的死区比例
}

// Settings 是网格配置文件的顶层结构。
// Version 在每次保存时递增，用于检测并发写入导致的丢失更新。
type Settings struct {
	Version  int                    `json:"version"`
	Variants map[string]*GridConfig `json:"variants"`
}

// Credentials 定义了 OKX API 凭证和全局运行配置
type Credentials struct {
	APIKey      string    `json:"api_key"`
	SecretKey   string    `json:"secret_key"`
	Passphrase  string    `json:"passphrase"`
	BaseURL     string    `json:"base_url,omitempty"`      // 默认 https://www.okx.com
	WSPublicURL string    `json:"ws_public_url,omitempty"` // 默认 wss://ws.okx.com:8443/ws/v5/public
	IsSimulated bool      `json:"is_simulated"`            // 是否使用 OKX 模拟盘
	LogConfig   LogConfig `json:"log"`
}

// LogConfig 定义了日志相关的配置
type LogConfig struct {
	Level      string `json:"level"`       // 日志级别, e.g., "debug", "info", "warn", "error"
	Output     string `json:"output"`      // 输出模式: "console", "file", "both"
	File       string `json:"file"`        // 日志文件路径
	MaxSize    int    `json:"max_size"`    // 单个日志文件的最大大小 (MB)
	MaxBackups int    `json:"max_backups"` // 保留的旧日志文件最大数量
	MaxAge     int    `json:"max_age"`     // 旧日志文件的最大保留天数
	Compress   bool   `json:"compress"`    // 是否压缩旧日志文件
}

// MarketSnapshot 是单个周期开始时抓取的行情与仓位快照
type MarketSnapshot struct {
	CurrentPrice    float64 // 最新成交价
	CurrentPosition float64 // 当前持仓数量（现货多头策略，>= 0）
	AvgEntryPrice   float64 // 持仓均价，空仓时为 0
}

// OpenOrder 代表交易所返回的一笔未成交挂单
type OpenOrder struct {
	OrderID string
	Side    Side
	Price   float64
	Size    float64
}

// CycleSummary 汇总一次周期的执行结果，用于审计与展示
type CycleSummary struct {
	Position          float64 // 周期开始时的持仓
	Price             float64 // 周期开始时的价格
	PlacedBuy         int     // 新挂买单数量
	PlacedSell        int     // 新挂卖单数量
	ProtectedSell     int     // 因最小利润保护被拦截的卖单数量
	Kept              int     // 已存在、无需重复挂出的档位数量
	CanceledOnRescale int     // rescale 时撤销的网格挂单数量
	Rescaled          bool    // 本周期是否触发了 rescale
}

// Info 返回与审计日志兼容的单行摘要
func (s *CycleSummary) Info() string {
	return fmt.Sprintf("Pos:%g, Px:%g, B:%d, S:%d, Prot:%d",
		s.Position, s.Price, s.PlacedBuy, s.PlacedSell, s.ProtectedSell)
}

// AuditEntry 是写入审计历史的一条记录
type AuditEntry struct {
	Timestamp time.Time `json:"ts"`
	BotType   string    `json:"bot_type"`
	Status    string    `json:"status"`
	Rescaled  bool      `json:"rescaled,omitempty"`
	Info      string    `json:"info"`
}

// --- OKX v5 API 响应结构 ---

// Ticker 是 /api/v5/market/ticker 的单条数据
type Ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

// Position 是 /api/v5/account/positions 的单条数据
type Position struct {
	InstID string `json:"instId"`
	Pos    string `json:"pos"`
	AvgPx  string `json:"avgPx"`
}

// PendingOrder 是 /api/v5/trade/orders-pending 的单条数据
type PendingOrder struct {
	InstID  string `json:"instId"`
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	Px      string `json:"px"`
	Sz      string `json:"sz"`
	Side    string `json:"side"`
}

// OrderResult 是下单/撤单接口返回的单条结果
type OrderResult struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// OKXError 定义了 OKX API 返回的错误信息结构
type OKXError struct {
	Code string
	Msg  string
}

// Error 方法使得 OKXError 实现了 error 接口
func (e *OKXError) Error() string {
	return fmt.Sprintf("OKX API Error: code=%s, msg=%s", e.Code, e.Msg)
}
