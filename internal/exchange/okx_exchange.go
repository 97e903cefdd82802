package exchange

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"okx-grid-bot-go/internal/models"

	"github.com/jxskiss/base62"
	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://www.okx.com"
	defaultWSPublicURL = "wss://ws.okx.com:8443/ws/v5/public"

	// pxDecimals 是挂单价格的小数位数，对账时的价格键也使用同样的精度
	pxDecimals = 1
)

// OKXExchange 实现了 Exchange 接口，用于与OKX v5 REST API进行交互。
type OKXExchange struct {
	apiKey      string
	secretKey   string
	passphrase  string
	baseURL     string
	wsPublicURL string
	simulated   bool
	httpClient  *http.Client
	logger      *zap.SugaredLogger
}

// NewOKXExchange 创建一个新的 OKXExchange 实例
func NewOKXExchange(creds *models.Credentials, logger *zap.SugaredLogger) *OKXExchange {
	baseURL := creds.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	wsURL := creds.WSPublicURL
	if wsURL == "" {
		wsURL = defaultWSPublicURL
	}

	return &OKXExchange{
		apiKey:      creds.APIKey,
		secretKey:   creds.SecretKey,
		passphrase:  creds.Passphrase,
		baseURL:     baseURL,
		wsPublicURL: wsURL,
		simulated:   creds.IsSimulated,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// sign 按OKX规则对 timestamp+method+requestPath+body 做HMAC-SHA256并base64编码
func (e *OKXExchange) sign(timestamp, method, requestPath, body string) string {
	h := hmac.New(sha256.New, []byte(e.secretKey))
	h.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// doRequest 是一个通用的请求处理函数，用于向OKX API发送请求并解包统一响应。
func (e *OKXExchange) doRequest(method, endpoint string, query url.Values, reqBody interface{}) (json.RawMessage, error) {
	requestPath := endpoint
	if len(query) > 0 {
		requestPath = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}

	var bodyStr string
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("无法序列化请求体: %v", err)
		}
		bodyStr = string(data)
	}

	req, err := http.NewRequest(method, e.baseURL+requestPath, bytes.NewReader([]byte(bodyStr)))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %v", err)
	}

	// OKX要求ISO格式的毫秒时间戳参与签名
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	req.Header.Set("OK-ACCESS-KEY", e.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", e.sign(timestamp, method, requestPath, bodyStr))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", e.passphrase)
	req.Header.Set("Content-Type", "application/json")
	if e.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}

	e.logger.Debugf("发送%s请求: %s", method, requestPath)
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("执行请求失败: %v", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %v", err)
	}

	var envelope struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respData, &envelope); err != nil {
		return nil, fmt.Errorf("解析响应失败, 状态码: %d, 响应: %s", resp.StatusCode, string(respData))
	}

	if envelope.Code != "0" {
		return envelope.Data, &models.OKXError{Code: envelope.Code, Msg: envelope.Msg}
	}
	if resp.StatusCode != http.StatusOK {
		return envelope.Data, fmt.Errorf("API请求失败, 状态码: %d, 响应: %s", resp.StatusCode, string(respData))
	}

	return envelope.Data, nil
}

// --- Exchange 接口实现 ---

// GetTicker 获取指定产品的最新成交价。
func (e *OKXExchange) GetTicker(instID string) (float64, error) {
	query := url.Values{}
	query.Set("instId", instID)
	data, err := e.doRequest("GET", "/api/v5/market/ticker", query, nil)
	if err != nil {
		return 0, err
	}

	var tickers []models.Ticker
	if err := json.Unmarshal(data, &tickers); err != nil {
		return 0, err
	}
	if len(tickers) == 0 {
		return 0, fmt.Errorf("未找到产品 %s 的行情", instID)
	}

	return strconv.ParseFloat(tickers[0].Last, 64)
}

// GetPosition 获取指定产品的持仓数量与持仓均价，无持仓时返回0。
func (e *OKXExchange) GetPosition(instID string) (float64, float64, error) {
	query := url.Values{}
	query.Set("instId", instID)
	data, err := e.doRequest("GET", "/api/v5/account/positions", query, nil)
	if err != nil {
		return 0, 0, err
	}

	var positions []models.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return 0, 0, err
	}
	if len(positions) == 0 {
		return 0, 0, nil
	}

	pos, err := strconv.ParseFloat(positions[0].Pos, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("解析持仓数量失败: %v", err)
	}
	// 空仓时avgPx可能为空字符串
	var avgPx float64
	if positions[0].AvgPx != "" {
		if avgPx, err = strconv.ParseFloat(positions[0].AvgPx, 64); err != nil {
			return 0, 0, fmt.Errorf("解析持仓均价失败: %v", err)
		}
	}

	return pos, avgPx, nil
}

// GetPendingOrders 获取指定产品的全部未成交挂单。
func (e *OKXExchange) GetPendingOrders(instID string) ([]models.OpenOrder, error) {
	query := url.Values{}
	query.Set("instId", instID)
	data, err := e.doRequest("GET", "/api/v5/trade/orders-pending", query, nil)
	if err != nil {
		return nil, err
	}

	var pending []models.PendingOrder
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}

	orders := make([]models.OpenOrder, 0, len(pending))
	for _, p := range pending {
		px, errPx := strconv.ParseFloat(p.Px, 64)
		sz, errSz := strconv.ParseFloat(p.Sz, 64)
		if errPx != nil || errSz != nil {
			e.logger.Warnf("挂单 %s 的价格/数量无法解析, 跳过: px=%s, sz=%s", p.OrdID, p.Px, p.Sz)
			continue
		}
		orders = append(orders, models.OpenOrder{
			OrderID: p.OrdID,
			Side:    models.Side(p.Side),
			Price:   px,
			Size:    sz,
		})
	}
	return orders, nil
}

// CancelOrder 撤销一笔挂单。
func (e *OKXExchange) CancelOrder(instID string, orderID string) error {
	body := map[string]string{
		"instId": instID,
		"ordId":  orderID,
	}
	data, err := e.doRequest("POST", "/api/v5/trade/cancel-order", nil, body)
	if err != nil {
		return err
	}

	var results []models.OrderResult
	if err := json.Unmarshal(data, &results); err != nil {
		return err
	}
	if len(results) > 0 && results[0].SCode != "0" {
		return &models.OKXError{Code: results[0].SCode, Msg: results[0].SMsg}
	}
	return nil
}

// PlaceOrder 以现货限价单方式挂出一笔订单，返回交易所分配的订单ID。
func (e *OKXExchange) PlaceOrder(instID string, side models.Side, price, size float64) (string, error) {
	body := map[string]string{
		"instId":  instID,
		"tdMode":  "cash",
		"side":    string(side),
		"ordType": "limit",
		"px":      FormatPrice(price),
		"sz":      strconv.FormatFloat(size, 'f', -1, 64),
		"clOrdId": newClientOrderID(),
	}
	data, err := e.doRequest("POST", "/api/v5/trade/order", nil, body)
	if err != nil {
		e.logger.Errorf("下 %s 单失败, 价格 %s: %v", side, body["px"], err)
		return "", err
	}

	var results []models.OrderResult
	if err := json.Unmarshal(data, &results); err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("下单响应为空")
	}
	if results[0].SCode != "0" {
		return "", &models.OKXError{Code: results[0].SCode, Msg: results[0].SMsg}
	}
	return results[0].OrdID, nil
}

// FormatPrice 将价格格式化为挂单精度的字符串。
// 下单与对账使用同一个格式化函数，保证档位与挂单能精确匹配。
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', pxDecimals, 64)
}

// newClientOrderID 生成OKX要求的字母数字clOrdId
func newClientOrderID() string {
	return "grid" + string(base62.FormatInt(time.Now().UnixNano()))
}
