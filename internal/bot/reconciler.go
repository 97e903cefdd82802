package bot

import (
	"context"
	"math"

	"okx-grid-bot-go/internal/exchange"
	"okx-grid-bot-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// sizeTolerance 用于判断一笔挂单是否属于本策略的网格：
// 只有数量与sizePerGrid一致（容差内）的挂单才参与对账，其余视为手动挂单。
const sizeTolerance = 1e-6

// Reconciler 将目标网格档位与当前挂单进行对账，补齐缺失的订单。
// 对账是幂等的：已被挂单占据的档位不会重复下单；
// rescale 之外不会主动撤销任何挂单。
type Reconciler struct {
	Buffer  float64 // 当前价附近的死区比例
	Size    float64 // 每格下单数量
	Gate    RiskGate
	Ex      exchange.Exchange
	Limiter *rate.Limiter // 下单节流，nil 表示不限速
	Logger  *zap.SugaredLogger
}

// ReconcileResult 汇总一次对账的下单统计
type ReconcileResult struct {
	PlacedBuy     int
	PlacedSell    int
	ProtectedSell int
	Kept          int
}

// Reconcile 逐档位对账并按需下单。
// 档位与挂单通过挂单精度的价格键精确匹配；两个档位落在同一个价格键上
// 意味着它们在交易所侧无法区分，直接报告为校验失败而不是静默合并。
func (r *Reconciler) Reconcile(instID string, levels []float64, snap models.MarketSnapshot) (*ReconcileResult, error) {
	open, err := r.Ex.GetPendingOrders(instID)
	if err != nil {
		return nil, classify(err)
	}

	// 只把数量匹配的挂单视为网格的一部分
	active := make(map[string]string, len(open))
	for _, o := range open {
		if math.Abs(o.Size-r.Size) < sizeTolerance {
			active[exchange.FormatPrice(o.Price)] = o.OrderID
		}
	}

	result := &ReconcileResult{}
	seen := make(map[string]float64, len(levels))

	for _, level := range levels {
		key := exchange.FormatPrice(level)
		if prev, ok := seen[key]; ok {
			return result, validationErrorf("档位 %g 与 %g 在挂单精度下无法区分 (价格键 %s)", prev, level, key)
		}
		seen[key] = level

		// 死区内的档位既不买也不卖，避免挂出会立即成交的订单
		diff := (level - snap.CurrentPrice) / snap.CurrentPrice
		var side models.Side
		switch {
		case diff > r.Buffer:
			side = models.Sell
		case diff < -r.Buffer:
			side = models.Buy
		default:
			continue
		}

		// 档位已有挂单，保持不动
		if _, ok := active[key]; ok {
			result.Kept++
			continue
		}

		switch r.Gate.Evaluate(side, level, snap) {
		case ReasonOverloaded:
			r.Logger.Debugf("持仓已达上限, 跳过买单 @ %s", key)
			continue
		case ReasonProtected:
			result.ProtectedSell++
			r.Logger.Infof("卖单 @ %s 低于保本价, 已拦截", key)
			continue
		}

		if r.Limiter != nil {
			if err := r.Limiter.Wait(context.Background()); err != nil {
				return result, classify(err)
			}
		}
		orderID, err := r.Ex.PlaceOrder(instID, side, level, r.Size)
		if err != nil {
			return result, classify(err)
		}

		if side == models.Buy {
			result.PlacedBuy++
		} else {
			result.PlacedSell++
		}
		r.Logger.Infof("成功下 %s 单: ID %s, 价格 %s, 数量 %g", side, orderID, key, r.Size)
	}

	return result, nil
}
