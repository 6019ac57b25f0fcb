package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"energy-dashboard/internal/models"
)

// Definition внешнее определение устройства (строка таблицы категорий)
type Definition struct {
	DeviceName      string
	Category        models.Category
	ConsumptionType models.ConsumptionType
	InsightTemplate string
}

// Definitions набор внешних определений в порядке файла
type Definitions []Definition

// DefinitionHeader ожидаемые колонки таблицы определений
var DefinitionHeader = []string{"Device Name", "Category", "Consumption Type", "Insight Template"}

// LoadDefinitions читает определения из CSV или XLSX; отсутствие файла не ошибка
func LoadDefinitions(path string) (Definitions, error) {
	if path == "" {
		return nil, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to open category definitions: %w", err)
		}
		defer f.Close()
		return ParseDefinitionsCSV(f)
	}
}

// ParseDefinitionsCSV разбирает CSV с определениями устройств
func ParseDefinitionsCSV(r io.Reader) (Definitions, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading category definitions: %w", err)
		}
		rows = append(rows, record)
	}
	return parseRows(rows), nil
}

func loadXLSX(path string) (Definitions, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open category workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows), nil
}

// parseRows пропускает заголовок и строки без имени или категории
func parseRows(rows [][]string) Definitions {
	var defs Definitions
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		category := strings.TrimSpace(row[1])
		if name == "" || category == "" {
			continue
		}

		d := Definition{
			DeviceName:      name,
			Category:        ParseCategory(category),
			ConsumptionType: models.ConsumptionIntermittent,
		}
		if len(row) > 2 && strings.EqualFold(strings.TrimSpace(row[2]), string(models.ConsumptionContinuous)) {
			d.ConsumptionType = models.ConsumptionContinuous
		}
		if len(row) > 3 {
			d.InsightTemplate = strings.TrimSpace(row[3])
		}
		defs = append(defs, d)
	}
	return defs
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "device name" || first == "device" || first == "name"
}

// ParseCategory сопоставляет строку известной категории без учета регистра
func ParseCategory(s string) models.Category {
	for c := range thresholds {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return models.Category(s)
}
