// Package catalog определяет категорию устройства по его имени
package catalog

import (
	"fmt"
	"strings"

	"energy-dashboard/internal/models"
)

// Categorizer неизменяемый классификатор устройств
type Categorizer struct {
	entries []entry
	exact   map[string]int
}

// New создает классификатор; внешние определения имеют приоритет над встроенной таблицей
func New(defs Definitions) *Categorizer {
	entries := make([]entry, 0, len(defs)+len(knownDevices))
	for _, d := range defs {
		key := Normalize(d.DeviceName)
		if key == "" {
			continue
		}
		entries = append(entries, entry{
			key:             key,
			category:        d.Category,
			consumptionType: d.ConsumptionType,
			insightTemplate: d.InsightTemplate,
		})
	}
	entries = append(entries, knownDevices...)

	exact := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, ok := exact[e.key]; !ok {
			exact[e.key] = i
		}
	}

	return &Categorizer{entries: entries, exact: exact}
}

// Normalize приводит имя к нижнему регистру и схлопывает пробелы
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Categorize возвращает категорию устройства; результат есть всегда
func (c *Categorizer) Categorize(deviceName string) models.CategoryInfo {
	name := Normalize(deviceName)
	if name == "" {
		return fallback()
	}

	if i, ok := c.exact[name]; ok {
		return c.info(c.entries[i], models.MatchExact)
	}

	for _, e := range c.entries {
		if strings.Contains(name, e.key) || strings.Contains(e.key, name) {
			return c.info(e, models.MatchSubstring)
		}
	}

	for _, h := range heuristics {
		for _, kw := range h.keywords {
			if strings.Contains(name, kw) {
				return build(h.category, h.consumptionType, "", models.MatchHeuristic)
			}
		}
	}

	return fallback()
}

func (c *Categorizer) info(e entry, match models.MatchKind) models.CategoryInfo {
	return build(e.category, e.consumptionType, e.insightTemplate, match)
}

func fallback() models.CategoryInfo {
	return build(models.CategoryUnknown, models.ConsumptionIntermittent, "", models.MatchFallback)
}

func build(category models.Category, ct models.ConsumptionType, tpl string, match models.MatchKind) models.CategoryInfo {
	if ct == "" {
		ct = models.ConsumptionIntermittent
	}
	if tpl == "" {
		tpl = InsightTemplate(category)
	}
	return models.CategoryInfo{
		Category:        category,
		ConsumptionType: ct,
		ActiveThreshold: Threshold(category),
		InsightTemplate: tpl,
		Match:           match,
	}
}

// Threshold возвращает порог активного часа для категории
func Threshold(category models.Category) float64 {
	if v, ok := thresholds[category]; ok {
		return v
	}
	return thresholds[models.CategoryUnknown]
}

// InsightTemplate возвращает шаблон подсказки для категории
func InsightTemplate(category models.Category) string {
	if tpl, ok := insightTemplates[category]; ok {
		return tpl
	}
	return insightTemplates[models.CategoryUnknown]
}

// FormatInsight подставляет длительность и энергию в шаблон подсказки
func FormatInsight(template string, activeHours int, totalKwh float64) string {
	duration := fmt.Sprintf("%d hours", activeHours)
	if activeHours == 1 {
		duration = "1 hour"
	}
	r := strings.NewReplacer(
		"{duration}", duration,
		"{totalEnergy}", fmt.Sprintf("%.2f kWh", totalKwh),
	)
	return r.Replace(template)
}
