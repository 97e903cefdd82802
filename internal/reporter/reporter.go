package reporter

import (
	"os"

	"okx-grid-bot-go/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintSummary 以表格形式输出单次周期的执行结果
func PrintSummary(variant string, s *models.CycleSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("周期结果 [%s]", variant)
	t.AppendRows([]table.Row{
		{"当前价格", s.Price},
		{"当前持仓", s.Position},
		{"新挂买单", s.PlacedBuy},
		{"新挂卖单", s.PlacedSell},
		{"保护拦截", s.ProtectedSell},
		{"保留档位", s.Kept},
		{"区间重建", s.Rescaled},
	})
	if s.Rescaled {
		t.AppendRow(table.Row{"重建撤单", s.CanceledOnRescale})
	}
	t.Render()
}

// PrintHistory 以表格形式输出审计历史，最近的记录在最后
func PrintHistory(entries []models.AuditEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"时间", "变体", "状态", "重建", "摘要"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.BotType,
			e.Status,
			e.Rescaled,
			e.Info,
		})
	}
	t.Render()
}
