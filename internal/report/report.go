// Package report печатает снимок дашборда в терминал
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"energy-dashboard/internal/dashboard"
	"energy-dashboard/internal/models"
)

// NoData текст вместо графика для пустого окна
const NoData = "No data available"

// RenderChart строит график суммарного потребления по показаниям снимка
func RenderChart(snap *dashboard.Snapshot, width, height int) string {
	if len(snap.Readings) == 0 {
		return NoData
	}
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(snap.Readings))
	for i, r := range snap.Readings {
		data[i] = r.Total()
	}

	unit := "hour"
	if snap.View == models.GranularityWeek {
		unit = "day"
	}
	caption := fmt.Sprintf("kWh per %s, %s to %s", unit,
		snap.Window.Start.Format("2006-01-02"), snap.Window.End.Format("2006-01-02"))

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle()
)

// column заголовок и выравнивание столбца таблицы
type column struct {
	title string
	align lipgloss.Position
}

var (
	deviceColumns = []column{
		{"DEVICE", lipgloss.Left}, {"CATEGORY", lipgloss.Left}, {"KWH", lipgloss.Right},
		{"COST", lipgloss.Right}, {"ACTIVE HOURS", lipgloss.Right},
	}
	baselineColumns = []column{
		{"CATEGORY", lipgloss.Left}, {"CURRENT", lipgloss.Right}, {"AVERAGE", lipgloss.Right}, {"CHANGE", lipgloss.Right},
	}
	peerColumns = []column{
		{"DEVICE", lipgloss.Left}, {"YOURS", lipgloss.Right}, {"AVERAGE", lipgloss.Right}, {"CHANGE", lipgloss.Right},
	}
)

// renderTable выравнивает строки по ширине самой длинной ячейки столбца
func renderTable(cols []column, rows [][]string) string {
	widths := make([]int, len(cols))
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
		widths[i] = lipgloss.Width(c.title)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, renderRow(cols, widths, titles, headerStyle))
	for _, row := range rows {
		lines = append(lines, renderRow(cols, widths, row, cellStyle))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRow(cols []column, widths []int, cells []string, style lipgloss.Style) string {
	parts := make([]string, 0, 2*len(cells))
	for i, cell := range cells {
		if i > 0 {
			parts = append(parts, "  ")
		}
		parts = append(parts, style.Width(widths[i]).Align(cols[i].align).Render(cell))
	}
	return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
}

// Render печатает отчет: график, устройства, итоги, базовые линии и сравнение
func Render(w io.Writer, snap *dashboard.Snapshot, width, height int) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Participant %s, %s view", snap.ParticipantID, snap.View)))
	b.WriteString("\n\n")
	b.WriteString(RenderChart(snap, width, height))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(snap.Devices)+1)
	for _, d := range snap.Devices {
		rows = append(rows, []string{d.Name, string(d.Category), fmt.Sprintf("%.3f", d.TotalKwh), d.CostLabel, fmt.Sprint(d.ActiveHours)})
	}
	rows = append(rows, []string{"TOTAL", "", fmt.Sprintf("%.3f", snap.TotalKwh), snap.TotalCostLabel, ""})
	b.WriteString(renderTable(deviceColumns, rows))
	b.WriteString("\n")

	if snap.Previous != nil {
		verb := "more"
		if snap.Previous.Savings.IsSaving {
			verb = "less"
		}
		fmt.Fprintf(&b, "\nPrevious period: %.3f kWh, %.2f%% %s this period\n",
			snap.Previous.TotalKwh, abs(snap.Previous.Savings.PercentChange), verb)
	}

	if len(snap.Devices) > 0 {
		b.WriteString("\n")
		for _, d := range snap.Devices {
			if d.Insight != "" {
				fmt.Fprintf(&b, "* %s\n", d.Insight)
			}
		}
	}

	if len(snap.Baselines.Categories) > 0 {
		b.WriteString("\n" + titleStyle.Render("Category baselines:") + "\n")
		rows = rows[:0]
		for _, c := range sortedCategories(snap.Baselines.Categories) {
			bl := snap.Baselines.Categories[c]
			rows = append(rows, []string{string(c), fmt.Sprintf("%.3f", bl.Current), fmt.Sprintf("%.3f", bl.Average), fmt.Sprintf("%+.2f%%", bl.PercentChange)})
		}
		b.WriteString(renderTable(baselineColumns, rows) + "\n")
	}

	switch {
	case snap.ComparisonError != "":
		fmt.Fprintf(&b, "\nPeer comparison unavailable: %s\n", snap.ComparisonError)
	case len(snap.Comparisons) > 0:
		b.WriteString("\n" + titleStyle.Render("Compared with other participants:") + "\n")
		rows = rows[:0]
		for _, c := range snap.Comparisons {
			rows = append(rows, []string{c.DeviceName, fmt.Sprintf("%.3f", c.YourUsage), fmt.Sprintf("%.3f", c.AverageUsage), fmt.Sprintf("%+.2f%%", c.PercentDifference)})
		}
		b.WriteString(renderTable(peerColumns, rows) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedCategories(m map[models.Category]models.Baseline) []models.Category {
	out := make([]models.Category, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
