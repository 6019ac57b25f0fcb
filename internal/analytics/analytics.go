// Package analytics реализует агрегацию почасовых показаний и производные метрики
// Включает выравнивание показаний по окну, дневную агрегацию недели,
// исторические базовые линии и сравнение с другими участниками
package analytics

import "math"

// roundHalfUp округляет до целого, половины округляются вверх
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// percentChange возвращает (current-base)/base*100 или 0 при base <= 0
func percentChange(current, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (current - base) / base * 100
}
