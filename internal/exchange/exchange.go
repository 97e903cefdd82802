package exchange

import "okx-grid-bot-go/internal/models"

// Exchange 定义了网格策略所需的全部交易所操作。
// 策略核心只依赖这个接口，便于在测试中用mock替换真实的OKX实现。
type Exchange interface {
	GetTicker(instID string) (float64, error)
	GetPosition(instID string) (pos float64, avgPx float64, err error)
	GetPendingOrders(instID string) ([]models.OpenOrder, error)
	CancelOrder(instID string, orderID string) error
	PlaceOrder(instID string, side models.Side, price, size float64) (string, error)
}
