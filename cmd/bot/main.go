package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"okx-grid-bot-go/internal/audit"
	"okx-grid-bot-go/internal/bot"
	"okx-grid-bot-go/internal/config"
	"okx-grid-bot-go/internal/exchange"
	"okx-grid-bot-go/internal/logger"
	"okx-grid-bot-go/internal/models"
	"okx-grid-bot-go/internal/reporter"

	"github.com/joho/godotenv"
)

func main() {
	// --- 命令行参数定义 ---
	authPath := flag.String("config", "", "path to the credentials file (overrides the search path)")
	settingsPath := flag.String("settings", "", "path to the grid settings file (overrides the search path)")
	mode := flag.String("mode", "run", "running mode: run, watch or history")
	historyLimit := flag.Int("last", 20, "number of audit entries to show in history mode")
	flag.Parse()

	// 位置参数选择策略变体，缺省为 main
	variant := flag.Arg(0)
	if variant == "" {
		variant = "main"
	}

	// --- 初始化日志 (提前) ---
	// 在加载配置前就需要记录日志，先用默认配置初始化
	logger.InitLogger(models.LogConfig{Level: "info", Output: "console"})

	// --- 加载 .env 文件 ---
	if err := godotenv.Load(); err != nil {
		logger.S().Info("未找到 .env 文件，将从系统环境变量中读取。")
	} else {
		logger.S().Info("成功从 .env 文件加载配置。")
	}

	// --- 加载凭证配置 ---
	authPaths := config.AuthSearchPaths()
	if *authPath != "" {
		authPaths = []string{*authPath}
	}
	creds, err := config.LoadCredentials(authPaths)
	if err != nil {
		logger.S().Fatalf("无法加载凭证配置: %v", err)
	}

	// 环境变量优先于文件中的凭证
	if v := os.Getenv("OKX_API_KEY"); v != "" {
		creds.APIKey = v
	}
	if v := os.Getenv("OKX_SECRET_KEY"); v != "" {
		creds.SecretKey = v
	}
	if v := os.Getenv("OKX_PASSPHRASE"); v != "" {
		creds.Passphrase = v
	}

	// --- 使用文件中的配置重新初始化日志 ---
	logger.InitLogger(creds.LogConfig)
	defer logger.S().Sync()

	// --- 加载网格参数 ---
	settingsPaths := config.SettingsSearchPaths()
	if *settingsPath != "" {
		settingsPaths = []string{*settingsPath}
	}
	settings, err := config.LoadSettings(settingsPaths)
	if err != nil {
		logger.S().Fatalf("无法加载网格参数: %v", err)
	}

	switch *mode {
	case "run":
		runMode(variant, creds, settings)
	case "watch":
		watchMode(variant, creds, settings)
	case "history":
		historyMode(*historyLimit)
	default:
		logger.S().Fatalf("未知的运行模式: %s。请选择 'run'、'watch' 或 'history'。", *mode)
	}
}

// auditDBPath 是审计历史数据库的固定位置
func auditDBPath() string {
	return filepath.Join("okx_data", "audit.db")
}

// runMode 执行一个交易周期
func runMode(variant string, creds *models.Credentials, settings *config.SettingsFile) {
	ex := exchange.NewOKXExchange(creds, logger.S())

	// 审计是尽力而为的：存储打不开时只告警，不阻止交易周期
	recorder, err := audit.NewBadgerRecorder(auditDBPath())
	if err != nil {
		logger.S().Warnf("无法打开审计数据库: %v，本周期将不记录审计。", err)
		recorder = nil
	} else {
		defer recorder.Close()
	}

	gridBot, err := bot.NewGridBot(variant, settings, ex, recorder, logger.S())
	if err != nil {
		logger.S().Fatalf("初始化机器人失败: %v", err)
	}

	summary, err := gridBot.Run()
	if err != nil {
		// 周期级失败只记录，不回滚：已撤销或已挂出的订单保持原样
		logger.S().Errorf("[%s] 周期执行失败: %v", variant, err)
		return
	}
	reporter.PrintSummary(variant, summary)
}

// watchMode 订阅公共行情并持续打印价格相对网格区间的位置，只读不交易
func watchMode(variant string, creds *models.Credentials, settings *config.SettingsFile) {
	cfg, err := settings.Variant(variant)
	if err != nil {
		logger.S().Fatalf("初始化监控失败: %v", err)
	}

	ex := exchange.NewOKXExchange(creds, logger.S())
	detector := bot.RescaleDetector{TrailingPercent: cfg.TrailingPercent}

	stop := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		close(stop)
	}()

	logger.S().Infof("[%s] 开始监控 %s, 区间 [%g, %g]", variant, cfg.InstID, cfg.MinPrice, cfg.MaxPrice)
	for {
		err := ex.WatchTicker(cfg.InstID, stop, func(price float64) {
			if detector.NeedsRescale(price, cfg.MinPrice, cfg.MaxPrice) {
				logger.S().Warnf("[%s] 价格 %g 已进入触发带, 下个周期将重建区间", variant, price)
			} else {
				logger.S().Infof("[%s] 价格 %g 在区间 [%g, %g] 内", variant, price, cfg.MinPrice, cfg.MaxPrice)
			}
		})
		select {
		case <-stop:
			logger.S().Info("监控已停止。")
			return
		default:
		}
		logger.S().Warnf("行情连接断开: %v。5秒后重连...", err)
		time.Sleep(5 * time.Second)
	}
}

// historyMode 打印最近的审计记录
func historyMode(limit int) {
	recorder, err := audit.NewBadgerRecorder(auditDBPath())
	if err != nil {
		logger.S().Fatalf("无法打开审计数据库: %v", err)
	}
	defer recorder.Close()

	entries, err := recorder.History(limit)
	if err != nil {
		logger.S().Fatalf("读取审计历史失败: %v", err)
	}
	if len(entries) == 0 {
		logger.S().Info("暂无审计记录。")
		return
	}
	reporter.PrintHistory(entries)
}
