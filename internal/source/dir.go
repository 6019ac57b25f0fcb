package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"energy-dashboard/internal/metrics"
	"energy-dashboard/internal/models"
)

// DayTableFile имя файла дневной выгрузки умной розетки
const DayTableFile = "Day-Table 1.csv"

// DirSource читает выгрузки из каталога вида
//
//	<root>/<participant>/<device>_<id>/<date>/Day-Table 1.csv
type DirSource struct {
	root   string
	logger *zap.Logger
}

// NewDirSource создает источник поверх каталога выгрузок
func NewDirSource(root string, logger *zap.Logger) *DirSource {
	return &DirSource{root: root, logger: logger}
}

// FetchDataset собирает датасет участника из всех дневных таблиц его устройств
func (s *DirSource) FetchDataset(ctx context.Context, participantID string) (ds *models.ParticipantDataset, err error) {
	defer func() { metrics.ObserveFetch("dir", err) }()

	if participantID == "" || strings.ContainsAny(participantID, `/\`) || participantID == "." || participantID == ".." {
		return nil, notFound(participantID)
	}

	participantDir := filepath.Join(s.root, participantID)
	info, err := os.Stat(participantDir)
	if err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return nil, notFound(participantID)
		}
		return nil, &FetchError{Participant: participantID, Err: err}
	}

	deviceDirs, err := os.ReadDir(participantDir)
	if err != nil {
		return nil, &FetchError{Participant: participantID, Err: err}
	}

	ds = models.NewParticipantDataset()
	for _, deviceDir := range deviceDirs {
		if !deviceDir.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := DeviceName(deviceDir.Name())
		series, _ := ds.Get(name)
		series.Name = name

		devicePath := filepath.Join(participantDir, deviceDir.Name())
		dateDirs, err := os.ReadDir(devicePath)
		if err != nil {
			s.logger.Warn("Failed to list device directory",
				zap.String("path", devicePath),
				zap.Error(err),
			)
			continue
		}

		for _, dateDir := range dateDirs {
			if !dateDir.IsDir() {
				continue
			}
			csvPath := filepath.Join(devicePath, dateDir.Name(), DayTableFile)
			values, timestamps, err := readDayTableFile(csvPath)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					s.logger.Warn("Skipping unreadable day table",
						zap.String("device", deviceDir.Name()),
						zap.String("date", dateDir.Name()),
						zap.Error(err),
					)
				}
				continue
			}
			series.Values = append(series.Values, values...)
			series.Timestamps = append(series.Timestamps, timestamps...)
		}

		ds.Set(name, series)
	}

	s.logger.Debug("Loaded participant directory",
		zap.String("participant", participantID),
		zap.Int("device_count", ds.Len()),
	)
	return ds, nil
}

// DeviceName возвращает имя устройства из имени каталога (все до первого '_')
func DeviceName(folder string) string {
	name, _, _ := strings.Cut(folder, "_")
	return name
}

func readDayTableFile(path string) ([]float64, []time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseDayTable(f)
}

// ParseDayTable разбирает дневную таблицу: первая строка заголовок,
// первая колонка время, вторая энергия в кВт·ч. Нечитаемые строки пропускаются.
func ParseDayTable(r io.Reader) ([]float64, []time.Time, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var values []float64
	var timestamps []time.Time
	lineNum := 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		if len(record) < 2 {
			continue
		}

		ts, err := models.ParseTimestamp(strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			continue
		}

		values = append(values, v)
		timestamps = append(timestamps, ts)
	}

	return values, timestamps, nil
}
