package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// TickerHandler 处理订阅到的一条最新成交价
type TickerHandler func(price float64)

// WatchTicker 订阅OKX公共行情频道并持续推送最新成交价，直到stop被关闭或连接出错。
// OKX要求客户端在空闲时主动发送"ping"文本来保持连接。
func (e *OKXExchange) WatchTicker(instID string, stop <-chan struct{}, handler TickerHandler) error {
	conn, _, err := websocket.DefaultDialer.Dial(e.wsPublicURL, nil)
	if err != nil {
		return fmt.Errorf("WebSocket连接失败: %v", err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"op": "subscribe",
		"args": []map[string]string{
			{"channel": "tickers", "instId": instID},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("发送订阅请求失败: %v", err)
	}

	const (
		pongWait   = 30 * time.Second
		pingPeriod = 20 * time.Second
	)
	conn.SetReadDeadline(time.Now().Add(pongWait))

	// 启动一个goroutine定期发送ping
	pingStop := make(chan struct{})
	defer close(pingStop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					e.logger.Warnf("发送ping失败: %v", err)
					return
				}
			case <-pingStop:
				return
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-stop:
			// 优雅关闭
			err := conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				return fmt.Errorf("发送WebSocket关闭帧失败: %v", err)
			}
			return nil
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("读取消息失败: %v", err)
			}
			conn.SetReadDeadline(time.Now().Add(pongWait))

			if string(message) == "pong" {
				continue
			}

			var push struct {
				Event string `json:"event"`
				Data  []struct {
					Last string `json:"last"`
				} `json:"data"`
			}
			if err := json.Unmarshal(message, &push); err != nil {
				e.logger.Warnf("解析行情推送失败: %v", err)
				continue
			}
			// 订阅确认等事件消息没有data
			if push.Event != "" || len(push.Data) == 0 {
				continue
			}

			price, err := strconv.ParseFloat(push.Data[0].Last, 64)
			if err != nil {
				e.logger.Warnf("转换价格失败: %v", err)
				continue
			}
			handler(price)
		}
	}
}
