package bot

import "okx-grid-bot-go/internal/models"

// Reason 标记风控对单个候选挂单的裁决结果
type Reason int

const (
	// ReasonNone 表示候选挂单通过全部风控检查
	ReasonNone Reason = iota
	// ReasonOverloaded 表示持仓已达上限，买单被拦截
	ReasonOverloaded
	// ReasonProtected 表示卖价低于保本价，卖单被拦截
	ReasonProtected
)

func (r Reason) String() string {
	switch r {
	case ReasonOverloaded:
		return "overloaded"
	case ReasonProtected:
		return "protected"
	}
	return "none"
}

// RiskGate 根据持仓与成本约束独立裁决每个候选挂单。
// 两条规则互不影响：持仓上限只拦截买单，最小利润保护只拦截卖单。
type RiskGate struct {
	MaxPosition  float64 // 0 表示不限制
	MinProfitGap float64 // 0 表示不保护
}

// Evaluate 对一个候选挂单做出裁决
func (g RiskGate) Evaluate(side models.Side, price float64, snap models.MarketSnapshot) Reason {
	if side == models.Buy {
		// 持仓达到上限后停止继续累积多头
		if g.MaxPosition > 0 && snap.CurrentPosition >= g.MaxPosition {
			return ReasonOverloaded
		}
		return ReasonNone
	}

	// 持有仓位时，低于成本加最小利润率的卖单会锁定亏损
	if g.MinProfitGap > 0 && snap.CurrentPosition > 0 {
		minProfitPrice := snap.AvgEntryPrice * (1 + g.MinProfitGap)
		if price < minProfitPrice {
			return ReasonProtected
		}
	}
	return ReasonNone
}
