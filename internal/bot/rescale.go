package bot

import "math"

// RescaleDetector 判断价格是否已逼近网格边界，需要围绕当前价重建区间。
// 重建只平移区间，不改变宽度。
type RescaleDetector struct {
	TrailingPercent float64 // 触发带宽占区间宽度的比例
}

// NeedsRescale 在当前价进入上下边界的触发带时返回true
func (d RescaleDetector) NeedsRescale(currentPrice, minPrice, maxPrice float64) bool {
	threshold := (maxPrice - minPrice) * d.TrailingPercent
	return currentPrice > maxPrice-threshold || currentPrice < minPrice+threshold
}

// Recenter 以当前价为中心计算新的边界，宽度保持不变，结果取整到整数价位。
func (d RescaleDetector) Recenter(currentPrice, minPrice, maxPrice float64) (newMin, newMax float64) {
	width := maxPrice - minPrice
	newMin = math.Round(currentPrice - width/2)
	newMax = math.Round(currentPrice + width/2)
	return newMin, newMax
}
