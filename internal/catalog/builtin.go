package catalog

import "energy-dashboard/internal/models"

// entry строка таблицы известных устройств
type entry struct {
	key             string
	category        models.Category
	consumptionType models.ConsumptionType
	insightTemplate string
}

// knownDevices встроенная таблица; порядок объявления разрешает конфликты подстрок.
// Типы устройств идут раньше брендов: "Sonos Lamp" это лампа.
var knownDevices = []entry{
	{key: "lamp", category: models.CategoryLighting, consumptionType: models.ConsumptionIntermittent},
	{key: "light", category: models.CategoryLighting, consumptionType: models.ConsumptionIntermittent},
	{key: "tv", category: models.CategoryEntertainment, consumptionType: models.ConsumptionIntermittent},
	{key: "television", category: models.CategoryEntertainment, consumptionType: models.ConsumptionIntermittent},
	{key: "smart speaker", category: models.CategoryEntertainment, consumptionType: models.ConsumptionContinuous},
	{key: "sonos", category: models.CategoryEntertainment, consumptionType: models.ConsumptionContinuous},
	{key: "nintendo switch", category: models.CategoryEntertainment, consumptionType: models.ConsumptionIntermittent},
	{key: "games console", category: models.CategoryEntertainment, consumptionType: models.ConsumptionIntermittent},
	{key: "fridge", category: models.CategoryKitchen, consumptionType: models.ConsumptionContinuous},
	{key: "refrigerator", category: models.CategoryKitchen, consumptionType: models.ConsumptionContinuous},
	{key: "freezer", category: models.CategoryKitchen, consumptionType: models.ConsumptionContinuous},
	{key: "microwave", category: models.CategoryKitchen, consumptionType: models.ConsumptionIntermittent},
	{key: "kettle", category: models.CategoryKitchen, consumptionType: models.ConsumptionIntermittent},
	{key: "toaster", category: models.CategoryKitchen, consumptionType: models.ConsumptionIntermittent},
	{key: "assistant hub", category: models.CategorySmartHome, consumptionType: models.ConsumptionContinuous},
	{key: "smart hub", category: models.CategorySmartHome, consumptionType: models.ConsumptionContinuous},
	{key: "echo", category: models.CategorySmartHome, consumptionType: models.ConsumptionContinuous},
	{key: "router", category: models.CategorySmartHome, consumptionType: models.ConsumptionContinuous},
	{key: "thermostat", category: models.CategoryHeatingCooling, consumptionType: models.ConsumptionContinuous},
	{key: "heater", category: models.CategoryHeatingCooling, consumptionType: models.ConsumptionIntermittent},
	{key: "fan", category: models.CategoryHeatingCooling, consumptionType: models.ConsumptionIntermittent},
	{key: "computer", category: models.CategoryOffice, consumptionType: models.ConsumptionIntermittent},
	{key: "laptop", category: models.CategoryOffice, consumptionType: models.ConsumptionIntermittent},
	{key: "monitor", category: models.CategoryOffice, consumptionType: models.ConsumptionIntermittent},
	{key: "printer", category: models.CategoryOffice, consumptionType: models.ConsumptionIntermittent},
	{key: "washing machine", category: models.CategoryAppliance, consumptionType: models.ConsumptionIntermittent},
	{key: "dryer", category: models.CategoryAppliance, consumptionType: models.ConsumptionIntermittent},
	{key: "dishwasher", category: models.CategoryAppliance, consumptionType: models.ConsumptionIntermittent},
}

// heuristic правило угадывания категории по ключевым словам
type heuristic struct {
	category        models.Category
	consumptionType models.ConsumptionType
	keywords        []string
}

// heuristics проверяются по порядку, первое совпадение выигрывает
var heuristics = []heuristic{
	{
		category:        models.CategoryEntertainment,
		consumptionType: models.ConsumptionIntermittent,
		keywords:        []string{"tv", "television", "speaker", "console", "xbox", "playstation", "switch", "stereo", "soundbar", "game"},
	},
	{
		category:        models.CategoryLighting,
		consumptionType: models.ConsumptionIntermittent,
		keywords:        []string{"lamp", "light", "bulb", "led"},
	},
	{
		category:        models.CategoryKitchen,
		consumptionType: models.ConsumptionIntermittent,
		keywords:        []string{"fridge", "oven", "microwave", "kettle", "toaster", "coffee", "cooker", "blender"},
	},
	{
		category:        models.CategorySmartHome,
		consumptionType: models.ConsumptionContinuous,
		keywords:        []string{"hub", "alexa", "google", "assistant", "nest", "camera", "doorbell", "plug", "smart"},
	},
	{
		category:        models.CategoryHeatingCooling,
		consumptionType: models.ConsumptionIntermittent,
		keywords:        []string{"heat", "thermo", "fan", "air con", "aircon", "radiator", "cooler", "dehumidifier"},
	},
	{
		category:        models.CategoryOffice,
		consumptionType: models.ConsumptionIntermittent,
		keywords:        []string{"computer", "pc", "laptop", "monitor", "printer", "desk", "charger"},
	},
}

// thresholds порог активного часа (кВт·ч) по категориям
var thresholds = map[models.Category]float64{
	models.CategoryEntertainment:  0.01,
	models.CategoryLighting:       0.005,
	models.CategoryKitchen:        0.02,
	models.CategorySmartHome:      0.002,
	models.CategoryHeatingCooling: 0.05,
	models.CategoryOffice:         0.01,
	models.CategoryAppliance:      0.05,
	models.CategoryUnknown:        0.01,
}

// insightTemplates шаблоны подсказок с плейсхолдерами {duration} и {totalEnergy}
var insightTemplates = map[models.Category]string{
	models.CategoryEntertainment:  "Your entertainment devices were on for {duration} and used {totalEnergy}. Switching them off at the wall avoids standby drain.",
	models.CategoryLighting:       "Lights were on for {duration} and used {totalEnergy}. LED bulbs and switching off empty rooms cut this further.",
	models.CategoryKitchen:        "Kitchen appliances ran for {duration} and used {totalEnergy}.",
	models.CategorySmartHome:      "Smart home devices stayed powered for {duration} and used {totalEnergy}.",
	models.CategoryHeatingCooling: "Heating and cooling ran for {duration} and used {totalEnergy}. A degree lower on the thermostat makes a noticeable difference.",
	models.CategoryOffice:         "Office equipment was on for {duration} and used {totalEnergy}.",
	models.CategoryAppliance:      "This appliance ran for {duration} and used {totalEnergy}.",
	models.CategoryUnknown:        "This device was active for {duration} and used {totalEnergy}.",
}
