package bot

// PlanLevels 在 [minPrice, maxPrice] 上生成 gridCount 个等距档位，首尾各为边界本身。
// 档位严格递增。纯函数，无任何副作用。
func PlanLevels(minPrice, maxPrice float64, gridCount int) ([]float64, error) {
	if gridCount < 2 {
		return nil, validationErrorf("网格数量必须 >= 2, 实际为 %d", gridCount)
	}
	if minPrice >= maxPrice {
		return nil, validationErrorf("网格边界无效: min=%g, max=%g", minPrice, maxPrice)
	}

	step := (maxPrice - minPrice) / float64(gridCount-1)
	levels := make([]float64, gridCount)
	for i := 0; i < gridCount; i++ {
		levels[i] = minPrice + float64(i)*step
	}
	// 避免浮点累加误差导致最高档偏离上边界
	levels[gridCount-1] = maxPrice

	return levels, nil
}
