// Package cost переводит энергию (кВт·ч) в деньги по фиксированному тарифу
package cost

import (
	"github.com/shopspring/decimal"

	"energy-dashboard/internal/models"
)

const (
	// DefaultUnitRate тариф по умолчанию за 1 кВт·ч
	DefaultUnitRate = 0.2703
	// DefaultSymbol символ валюты по умолчанию
	DefaultSymbol = "£"
)

var hundred = decimal.NewFromInt(100)

// Estimator рассчитывает стоимость потребления; не хранит изменяемого состояния
type Estimator struct {
	rate   decimal.Decimal
	symbol string
}

// NewEstimator создает калькулятор стоимости с заданным тарифом
func NewEstimator(unitRate float64, symbol string) *Estimator {
	if unitRate < 0 {
		unitRate = 0
	}
	return &Estimator{
		rate:   decimal.NewFromFloat(unitRate),
		symbol: symbol,
	}
}

// UnitRate возвращает тариф
func (e *Estimator) UnitRate() decimal.Decimal {
	return e.rate
}

// EstimateCost возвращает стоимость energyKwh по тарифу
func (e *Estimator) EstimateCost(energyKwh float64) decimal.Decimal {
	return decimal.NewFromFloat(energyKwh).Mul(e.rate)
}

// CalculateSavings сравнивает два итога; процент и разница всегда неотрицательны
func (e *Estimator) CalculateSavings(previous, current float64) models.Savings {
	prev := decimal.NewFromFloat(previous)
	diff := prev.Sub(decimal.NewFromFloat(current)).Abs()

	percent := 0.0
	if previous > 0 {
		percent = diff.Div(prev).Mul(hundred).InexactFloat64()
	}

	return models.Savings{
		PercentChange:  percent,
		CostDifference: diff.Mul(e.rate),
		IsSaving:       current < previous,
	}
}

// Format форматирует сумму с двумя знаками и символом валюты
func (e *Estimator) Format(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + e.symbol + amount.Abs().StringFixed(2)
	}
	return e.symbol + amount.StringFixed(2)
}
