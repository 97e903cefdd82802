package bot

import (
	"math"
	"sync"
	"time"

	"okx-grid-bot-go/internal/audit"
	"okx-grid-bot-go/internal/config"
	"okx-grid-bot-go/internal/exchange"
	"okx-grid-bot-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// placeInterval 是相邻两次下单之间的最小间隔，用于礼让交易所限频
const placeInterval = 100 * time.Millisecond

// GridBot 将一次完整的"计划-对账"周期组合在一起。
// 每次调用 Run 执行一个周期：抓取快照 -> 按需 rescale -> 生成档位 -> 对账下单 -> 写审计。
// 它不驻留运行，由外部调度器按需反复调用。
type GridBot struct {
	variant  string
	cfg      *models.GridConfig
	settings *config.SettingsFile
	ex       exchange.Exchange
	recorder audit.Recorder
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger
}

// NewGridBot 创建指定变体的网格机器人实例，变体未配置时返回错误。
func NewGridBot(variant string, settings *config.SettingsFile, ex exchange.Exchange, recorder audit.Recorder, logger *zap.SugaredLogger) (*GridBot, error) {
	cfg, err := settings.Variant(variant)
	if err != nil {
		return nil, err
	}

	return &GridBot{
		variant:  variant,
		cfg:      cfg,
		settings: settings,
		ex:       ex,
		recorder: recorder,
		limiter:  rate.NewLimiter(rate.Every(placeInterval), 1),
		logger:   logger,
	}, nil
}

// SetLimiter 替换下单节流器，主要用于测试中消除真实等待。
func (b *GridBot) SetLimiter(l *rate.Limiter) {
	b.limiter = l
}

// Run 执行一个完整周期，并在周期结束后尽力写入审计记录。
// 审计写入失败只告警，不影响周期的返回结果。
func (b *GridBot) Run() (*models.CycleSummary, error) {
	summary, err := b.runCycle()

	entry := models.AuditEntry{
		Timestamp: time.Now(),
		BotType:   b.variant,
	}
	if err != nil {
		entry.Status = "error"
		entry.Info = err.Error()
	} else {
		entry.Status = "success"
		entry.Info = summary.Info()
	}
	if summary != nil {
		entry.Rescaled = summary.Rescaled
	}

	if b.recorder != nil {
		if rerr := b.recorder.Record(entry); rerr != nil {
			b.logger.Warnf("写入审计记录失败: %v", rerr)
		}
	}

	return summary, err
}

// runCycle 是周期主体。返回的 error 总是 *CycleError。
func (b *GridBot) runCycle() (*models.CycleSummary, error) {
	snap, err := b.fetchSnapshot()
	if err != nil {
		return nil, err
	}
	b.logger.Infof("[%s] 当前价格: %g, 持仓: %g, 均价: %g",
		b.variant, snap.CurrentPrice, snap.CurrentPosition, snap.AvgEntryPrice)

	summary := &models.CycleSummary{
		Position: snap.CurrentPosition,
		Price:    snap.CurrentPrice,
	}

	detector := RescaleDetector{TrailingPercent: b.cfg.TrailingPercent}
	if detector.NeedsRescale(snap.CurrentPrice, b.cfg.MinPrice, b.cfg.MaxPrice) {
		canceled, err := b.rescale(detector, snap.CurrentPrice)
		if err != nil {
			return summary, err
		}
		summary.Rescaled = true
		summary.CanceledOnRescale = canceled
	}

	levels, err := PlanLevels(b.cfg.MinPrice, b.cfg.MaxPrice, b.cfg.GridCount)
	if err != nil {
		return summary, err
	}

	rec := &Reconciler{
		Buffer: b.cfg.DeadZoneBuffer,
		Size:   b.cfg.SizePerGrid,
		Gate: RiskGate{
			MaxPosition:  b.cfg.MaxPosition,
			MinProfitGap: b.cfg.MinProfitGap,
		},
		Ex:      b.ex,
		Limiter: b.limiter,
		Logger:  b.logger,
	}
	result, err := rec.Reconcile(b.cfg.InstID, levels, snap)
	if result != nil {
		summary.PlacedBuy = result.PlacedBuy
		summary.PlacedSell = result.PlacedSell
		summary.ProtectedSell = result.ProtectedSell
		summary.Kept = result.Kept
	}
	if err != nil {
		return summary, err
	}

	b.logger.Infof("[%s] %s", b.variant, summary.Info())
	return summary, nil
}

// fetchSnapshot 并发拉取行情与持仓，两者是相互独立的只读请求。
func (b *GridBot) fetchSnapshot() (models.MarketSnapshot, error) {
	var (
		price, pos, avgPx float64
		priceErr, posErr  error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		price, priceErr = b.ex.GetTicker(b.cfg.InstID)
	}()
	go func() {
		defer wg.Done()
		pos, avgPx, posErr = b.ex.GetPosition(b.cfg.InstID)
	}()
	wg.Wait()

	if priceErr != nil {
		return models.MarketSnapshot{}, classify(priceErr)
	}
	if posErr != nil {
		return models.MarketSnapshot{}, classify(posErr)
	}

	return models.MarketSnapshot{
		CurrentPrice:    price,
		CurrentPosition: pos,
		AvgEntryPrice:   avgPx,
	}, nil
}

// rescale 撤销全部网格挂单，围绕当前价重建边界并立即回写配置文件。
// 先持久化再继续对账，进程中途崩溃也不会留下新旧混用的区间。
func (b *GridBot) rescale(detector RescaleDetector, currentPrice float64) (int, error) {
	b.logger.Infof("[%s] 价格 %g 逼近边界 [%g, %g], 触发区间重建",
		b.variant, currentPrice, b.cfg.MinPrice, b.cfg.MaxPrice)

	open, err := b.ex.GetPendingOrders(b.cfg.InstID)
	if err != nil {
		return 0, classify(err)
	}

	// 旧档位已失效，逐笔撤销属于网格的挂单
	canceled := 0
	for _, o := range open {
		if math.Abs(o.Size-b.cfg.SizePerGrid) >= sizeTolerance {
			continue
		}
		if err := b.ex.CancelOrder(b.cfg.InstID, o.OrderID); err != nil {
			return canceled, classify(err)
		}
		canceled++
	}

	newMin, newMax := detector.Recenter(currentPrice, b.cfg.MinPrice, b.cfg.MaxPrice)
	b.cfg.MinPrice = newMin
	b.cfg.MaxPrice = newMax

	if err := b.settings.Save(); err != nil {
		return canceled, &CycleError{Kind: ErrKindStorage, Err: err}
	}

	b.logger.Infof("[%s] 新区间: [%g, %g], 已撤销 %d 笔网格挂单", b.variant, newMin, newMax, canceled)
	return canceled, nil
}
