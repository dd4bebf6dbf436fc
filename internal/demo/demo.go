// Package demo holds the static dataset served when no provider credential is
// configured, letting the dashboard run end to end without spending quota.
package demo

import (
	"strings"

	"github.com/weatherwise/weathercore/internal/models"
)

// DefaultCity is returned for locations not in the dataset.
const DefaultCity = "Tokyo"

// day builds one demo forecast day; only the fields the dashboard renders are
// populated.
func day(date string, tempMax, tempMin, temp, humidity, windSpeed float64, conditions, icon string, precipProb, uvIndex float64) models.WeatherDay {
	return models.WeatherDay{
		WeatherConditions: models.WeatherConditions{
			Datetime:   date,
			Temp:       temp,
			Humidity:   humidity,
			WindSpeed:  windSpeed,
			Conditions: conditions,
			Icon:       icon,
			PrecipProb: precipProb,
			UVIndex:    uvIndex,
		},
		TempMax: tempMax,
		TempMin: tempMin,
	}
}

func current(datetime string, temp, feelsLike, humidity, windSpeed float64, conditions, icon string, precipProb, uvIndex, visibility, pressure float64) *models.WeatherConditions {
	return &models.WeatherConditions{
		Datetime:   datetime,
		Temp:       temp,
		FeelsLike:  feelsLike,
		Humidity:   humidity,
		WindSpeed:  windSpeed,
		Conditions: conditions,
		Icon:       icon,
		PrecipProb: precipProb,
		UVIndex:    uvIndex,
		Visibility: visibility,
		Pressure:   pressure,
	}
}

var dataset = map[string]models.WeatherData{
	"Tokyo": {
		ResolvedAddress:   "Tokyo, Japan",
		Latitude:          35.6762,
		Longitude:         139.6503,
		CurrentConditions: current("2026-01-08T15:30:00", 8, 6, 65, 12, "Partly cloudy", "partly-cloudy-day", 10, 3, 10, 1015),
		Days: []models.WeatherDay{
			day("2026-01-08", 12, 5, 8, 65, 12, "Partly cloudy", "partly-cloudy-day", 10, 3),
			day("2026-01-09", 14, 6, 10, 60, 10, "Clear", "clear-day", 5, 4),
			day("2026-01-10", 13, 7, 10, 70, 15, "Rain", "rain", 80, 2),
			day("2026-01-11", 11, 6, 9, 75, 18, "Overcast", "cloudy", 40, 2),
			day("2026-01-12", 13, 7, 10, 68, 11, "Partly cloudy", "partly-cloudy-day", 20, 3),
			day("2026-01-13", 15, 8, 12, 62, 9, "Clear", "clear-day", 10, 4),
			day("2026-01-14", 14, 7, 11, 65, 13, "Partly cloudy", "partly-cloudy-day", 15, 3),
		},
	},
	"Paris": {
		ResolvedAddress:   "Paris, France",
		Latitude:          48.8566,
		Longitude:         2.3522,
		CurrentConditions: current("2026-01-08T09:30:00", 4, 1, 80, 20, "Rain", "rain", 85, 1, 8, 1008),
		Days: []models.WeatherDay{
			day("2026-01-08", 6, 2, 4, 80, 20, "Rain", "rain", 85, 1),
			day("2026-01-09", 5, 1, 3, 85, 22, "Rain", "rain", 90, 1),
			day("2026-01-10", 7, 3, 5, 75, 15, "Overcast", "cloudy", 60, 2),
			day("2026-01-11", 8, 4, 6, 70, 12, "Partly cloudy", "partly-cloudy-day", 30, 2),
			day("2026-01-12", 9, 5, 7, 68, 10, "Clear", "clear-day", 10, 3),
			day("2026-01-13", 10, 6, 8, 65, 11, "Clear", "clear-day", 5, 3),
			day("2026-01-14", 8, 4, 6, 72, 14, "Partly cloudy", "partly-cloudy-day", 25, 2),
		},
	},
	"Bali": {
		ResolvedAddress:   "Bali, Indonesia",
		Latitude:          -8.3405,
		Longitude:         115.0920,
		CurrentConditions: current("2026-01-08T16:30:00", 30, 34, 75, 8, "Partly cloudy", "partly-cloudy-day", 40, 8, 10, 1012),
		Days: []models.WeatherDay{
			day("2026-01-08", 32, 26, 30, 75, 8, "Partly cloudy", "partly-cloudy-day", 40, 8),
			day("2026-01-09", 31, 25, 29, 78, 10, "Rain", "rain", 70, 6),
			day("2026-01-10", 32, 26, 30, 72, 9, "Partly cloudy", "partly-cloudy-day", 35, 9),
			day("2026-01-11", 33, 27, 31, 70, 7, "Clear", "clear-day", 20, 10),
			day("2026-01-12", 32, 26, 30, 73, 8, "Partly cloudy", "partly-cloudy-day", 45, 8),
			day("2026-01-13", 31, 25, 29, 76, 11, "Rain", "rain", 65, 7),
			day("2026-01-14", 32, 26, 30, 74, 9, "Partly cloudy", "partly-cloudy-day", 40, 8),
		},
	},
	"New York": {
		ResolvedAddress:   "New York, NY, USA",
		Latitude:          40.7128,
		Longitude:         -74.0060,
		CurrentConditions: current("2026-01-08T03:30:00", -2, -8, 60, 25, "Snow", "snow", 75, 0, 5, 1020),
		Days: []models.WeatherDay{
			day("2026-01-08", 1, -4, -2, 60, 25, "Snow", "snow", 75, 2),
			day("2026-01-09", -1, -6, -4, 55, 30, "Clear", "clear-day", 5, 2),
			day("2026-01-10", 2, -3, 0, 50, 20, "Partly cloudy", "partly-cloudy-day", 10, 2),
			day("2026-01-11", 4, -1, 2, 52, 18, "Overcast", "cloudy", 30, 2),
			day("2026-01-12", 3, -2, 1, 65, 22, "Snow", "snow", 60, 1),
			day("2026-01-13", 1, -4, -1, 58, 24, "Clear", "clear-day", 10, 2),
			day("2026-01-14", 3, -2, 1, 54, 19, "Partly cloudy", "partly-cloudy-day", 15, 2),
		},
	},
}

// Get returns the demo payload for location: exact match first, then
// case-insensitive, then the default city.
func Get(location string) models.WeatherData {
	if data, ok := dataset[location]; ok {
		return data
	}
	for name, data := range dataset {
		if strings.EqualFold(name, location) {
			return data
		}
	}
	return dataset[DefaultCity]
}

// Cities lists the locations the dataset covers.
func Cities() []string {
	return []string{"Tokyo", "Paris", "Bali", "New York"}
}
