package models

// WeatherConditions is a single observation or daily summary in the canonical
// weather shape. All temperatures are Celsius; unit conversion for display is
// the caller's concern and is never applied below the service layer.
type WeatherConditions struct {
	Datetime       string   `json:"datetime"`
	DatetimeEpoch  int64    `json:"datetimeEpoch"`
	Temp           float64  `json:"temp"`
	FeelsLike      float64  `json:"feelslike"`
	Humidity       float64  `json:"humidity"`
	Precip         float64  `json:"precip"`
	PrecipProb     float64  `json:"precipprob"`
	PrecipType     []string `json:"preciptype"`
	Snow           float64  `json:"snow"`
	SnowDepth      float64  `json:"snowdepth"`
	WindGust       float64  `json:"windgust"`
	WindSpeed      float64  `json:"windspeed"`
	WindDir        float64  `json:"winddir"`
	Pressure       float64  `json:"pressure"`
	CloudCover     float64  `json:"cloudcover"`
	Visibility     float64  `json:"visibility"`
	SolarRadiation float64  `json:"solarradiation"`
	SolarEnergy    float64  `json:"solarenergy"`
	UVIndex        float64  `json:"uvindex"`
	Conditions     string   `json:"conditions"`
	Description    string   `json:"description"`
	Icon           string   `json:"icon"`
	Sunrise        string   `json:"sunrise,omitempty"`
	Sunset         string   `json:"sunset,omitempty"`
	MoonPhase      float64  `json:"moonphase,omitempty"`
}

// WeatherDay is one forecast day: a conditions summary plus the day's
// temperature range.
type WeatherDay struct {
	WeatherConditions
	TempMax float64 `json:"tempmax"`
	TempMin float64 `json:"tempmin"`
}

// WeatherData is the canonical provider-agnostic payload. Both provider
// transforms produce this shape; it is what gets cached and persisted.
type WeatherData struct {
	QueryCost         float64            `json:"queryCost"`
	Latitude          float64            `json:"latitude"`
	Longitude         float64            `json:"longitude"`
	ResolvedAddress   string             `json:"resolvedAddress"`
	Address           string             `json:"address"`
	Timezone          string             `json:"timezone"`
	TZOffset          float64            `json:"tzoffset"`
	Days              []WeatherDay       `json:"days"`
	CurrentConditions *WeatherConditions `json:"currentConditions,omitempty"`
}

// UsageStats tracks upstream API consumption. CallsToday resets at the first
// operation after local midnight; TotalCalls only ever grows.
type UsageStats struct {
	TotalCalls int64 `json:"totalCalls"`
	CallsToday int64 `json:"callsToday"`
	LastReset  int64 `json:"lastReset"` // epoch milliseconds
}
