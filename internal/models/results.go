package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category стандартизированная категория устройства
type Category string

// Категории устройств
const (
	CategoryEntertainment  Category = "Entertainment"
	CategoryLighting       Category = "Lighting"
	CategoryKitchen        Category = "Kitchen"
	CategorySmartHome      Category = "Smart Home"
	CategoryHeatingCooling Category = "Heating & Cooling"
	CategoryOffice         Category = "Office"
	CategoryAppliance      Category = "Appliance"
	CategoryUnknown        Category = "Unknown"
)

// ConsumptionType характер потребления устройства
type ConsumptionType string

const (
	// ConsumptionContinuous устройство потребляет постоянно (холодильник, хаб)
	ConsumptionContinuous ConsumptionType = "continuous"
	// ConsumptionIntermittent устройство включается эпизодически
	ConsumptionIntermittent ConsumptionType = "intermittent"
)

// MatchKind способ, которым было найдено соответствие категории
type MatchKind string

// Способы сопоставления
const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchHeuristic MatchKind = "heuristic"
	MatchFallback  MatchKind = "fallback"
)

// CategoryInfo результат категоризации устройства
type CategoryInfo struct {
	Category        Category        `json:"category"`
	ConsumptionType ConsumptionType `json:"consumption_type"`
	ActiveThreshold float64         `json:"active_threshold"`
	InsightTemplate string          `json:"insight_template"`
	Match           MatchKind       `json:"match"`
}

// Baseline сравнение текущего периода с историческим средним
type Baseline struct {
	Current       float64 `json:"current"`
	Average       float64 `json:"average"`
	PercentChange float64 `json:"percent_change"`
}

// Baselines базовые линии по устройствам и категориям
type Baselines struct {
	Devices    map[string]Baseline   `json:"devices"`
	Categories map[Category]Baseline `json:"categories"`
}

// ComparisonResult сравнение потребления устройства с другими участниками
type ComparisonResult struct {
	DeviceName         string  `json:"device_name"`
	YourUsage          float64 `json:"your_usage"`
	AverageUsage       float64 `json:"average_usage"`
	PercentDifference  float64 `json:"percent_difference"`
	IsLowerThanAverage bool    `json:"is_lower_than_average"`
}

// Savings разница стоимости между двумя периодами
type Savings struct {
	PercentChange  float64         `json:"percent_change"`
	CostDifference decimal.Decimal `json:"cost_difference"`
	IsSaving       bool            `json:"is_saving"`
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	Source    string    `json:"source"`
	Uptime    string    `json:"uptime"`
}
