package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"energy-dashboard/internal/models"
)

func TestCategorize_ExactMatch(t *testing.T) {
	c := New(nil)

	info := c.Categorize("  Nintendo   Switch ")
	assert.Equal(t, models.CategoryEntertainment, info.Category)
	assert.Equal(t, models.MatchExact, info.Match)
	assert.Equal(t, Threshold(models.CategoryEntertainment), info.ActiveThreshold)

	fridge := c.Categorize("Fridge")
	assert.Equal(t, models.CategoryKitchen, fridge.Category)
	assert.Equal(t, models.ConsumptionContinuous, fridge.ConsumptionType)
}

func TestCategorize_SubstringUsesDeclarationOrder(t *testing.T) {
	c := New(nil)

	// "lamp" is declared before the "sonos" brand key, so it wins
	info := c.Categorize("Sonos Lamp")
	assert.Equal(t, models.CategoryLighting, info.Category)
	assert.Equal(t, models.MatchSubstring, info.Match)

	speaker := c.Categorize("Sonos One")
	assert.Equal(t, models.CategoryEntertainment, speaker.Category)

	tv := c.Categorize("Living Room TV")
	assert.Equal(t, models.CategoryEntertainment, tv.Category)
	assert.Equal(t, models.MatchSubstring, tv.Match)

	lamp := c.Categorize("Bedside lamp")
	assert.Equal(t, models.CategoryLighting, lamp.Category)
}

func TestCategorize_Heuristics(t *testing.T) {
	c := New(nil)

	hub := c.Categorize("Google Nest Mini")
	assert.Equal(t, models.CategorySmartHome, hub.Category)
	assert.Equal(t, models.ConsumptionContinuous, hub.ConsumptionType)
	assert.Equal(t, models.MatchHeuristic, hub.Match)

	rad := c.Categorize("Oil Radiator")
	assert.Equal(t, models.CategoryHeatingCooling, rad.Category)
	assert.Equal(t, models.ConsumptionIntermittent, rad.ConsumptionType)
	assert.Equal(t, models.MatchHeuristic, rad.Match)
}

func TestCategorize_Fallback(t *testing.T) {
	c := New(nil)

	info := c.Categorize("xyzzy")
	assert.Equal(t, models.CategoryUnknown, info.Category)
	assert.Equal(t, models.ConsumptionIntermittent, info.ConsumptionType)
	assert.Equal(t, models.MatchFallback, info.Match)
	assert.NotEmpty(t, info.InsightTemplate)

	empty := c.Categorize("   ")
	assert.Equal(t, models.CategoryUnknown, empty.Category)
}

func TestCategorize_Totality(t *testing.T) {
	c := New(nil)

	for _, name := range []string{"a", "zz", "!!!", "12345", "Ωmega device", "qwertyuiop", "x y z"} {
		info := c.Categorize(name)
		assert.NotEmpty(t, info.Category, "name=%q", name)
		assert.NotEmpty(t, info.ConsumptionType, "name=%q", name)
		assert.Greater(t, info.ActiveThreshold, 0.0, "name=%q", name)
	}
}

func TestCategorize_DefinitionsOverrideBuiltIn(t *testing.T) {
	c := New(Definitions{
		{DeviceName: "Sonos Lamp", Category: models.CategoryLighting, ConsumptionType: models.ConsumptionIntermittent, InsightTemplate: "Lamp on {duration}, {totalEnergy}"},
		{DeviceName: "Aquarium", Category: models.Category("Pets"), ConsumptionType: models.ConsumptionContinuous},
	})

	lamp := c.Categorize("sonos lamp")
	assert.Equal(t, models.CategoryLighting, lamp.Category)
	assert.Equal(t, models.MatchExact, lamp.Match)
	assert.Equal(t, "Lamp on {duration}, {totalEnergy}", lamp.InsightTemplate)

	fish := c.Categorize("Big Aquarium Pump")
	assert.Equal(t, models.Category("Pets"), fish.Category)
	assert.Equal(t, models.ConsumptionContinuous, fish.ConsumptionType)
	assert.Equal(t, Threshold(models.CategoryUnknown), fish.ActiveThreshold)
}

func TestFormatInsight(t *testing.T) {
	got := FormatInsight("On for {duration} using {totalEnergy}.", 3, 1.234)
	assert.Equal(t, "On for 3 hours using 1.23 kWh.", got)

	assert.Equal(t, "1 hour", FormatInsight("{duration}", 1, 0))
}

func TestParseDefinitionsCSV(t *testing.T) {
	input := `Device Name,Category,Consumption Type,Insight Template
Sonos Lamp,lighting,intermittent,Lamp used {totalEnergy}
Fridge,Kitchen,continuous,
,Kitchen,continuous,
Broken`

	defs, err := ParseDefinitionsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "Sonos Lamp", defs[0].DeviceName)
	assert.Equal(t, models.CategoryLighting, defs[0].Category)
	assert.Equal(t, "Lamp used {totalEnergy}", defs[0].InsightTemplate)
	assert.Equal(t, models.ConsumptionContinuous, defs[1].ConsumptionType)
}

func TestLoadDefinitions_MissingFileIsNotAnError(t *testing.T) {
	defs, err := LoadDefinitions(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, defs)

	defs, err = LoadDefinitions("")
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadDefinitions_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Device Name", "Category", "Consumption Type", "Insight Template"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Hallway Strip", "Lighting", "continuous", "Strip on {duration}"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Hallway Strip", defs[0].DeviceName)
	assert.Equal(t, models.CategoryLighting, defs[0].Category)
	assert.Equal(t, models.ConsumptionContinuous, defs[0].ConsumptionType)
}

func TestProvider_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.csv")
	require.NoError(t, os.WriteFile(path, []byte("Aquarium,Pets,continuous,\n"), 0o644))

	p := NewProvider(path, zap.NewNop())
	assert.Equal(t, models.Category("Pets"), p.Current().Categorize("Aquarium").Category)

	reloads := 0
	p.OnReload(func() { reloads++ })

	require.NoError(t, os.WriteFile(path, []byte("Aquarium,Appliance,continuous,\n"), 0o644))
	p.Reload()
	assert.Equal(t, models.CategoryAppliance, p.Current().Categorize("Aquarium").Category)
	assert.Equal(t, 1, reloads)
}

func TestProvider_WatchPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.csv")
	require.NoError(t, os.WriteFile(path, []byte("Aquarium,Pets,continuous,\n"), 0o644))

	p := NewProvider(path, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Watch(ctx)

	// Rewrite until the watcher is registered and the change lands
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("Aquarium,Kitchen,continuous,\n"), 0o644)
		return p.Current().Categorize("Aquarium").Category == models.CategoryKitchen
	}, 5*time.Second, 50*time.Millisecond)
}
