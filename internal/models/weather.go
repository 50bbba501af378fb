package models

// Reading is one current-conditions snapshot for a city.
type Reading struct {
	Location  string  `json:"location"`
	Country   string  `json:"country"`
	TempC     float64 `json:"tempC"`
	Condition string  `json:"condition"`
	Humidity  float64 `json:"humidity"`
	WindKph   float64 `json:"windKph"`
}

// Payload returns the subset of the reading that is persisted as the weather_data blob
// and used to build the summary prompt.
func (r Reading) Payload() WeatherPayload {
	return WeatherPayload{
		Temperature: r.TempC,
		Condition:   r.Condition,
		Humidity:    r.Humidity,
		WindKph:     r.WindKph,
	}
}

// WeatherPayload is the JSON shape stored in the weather_data column.
type WeatherPayload struct {
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	WindKph     float64 `json:"wind_kph"`
}

// Record is one row of the weather_analysis table.
type Record struct {
	Timestamp   string `json:"timestamp"`
	Location    string `json:"location"`
	Country     string `json:"country"`
	WeatherData string `json:"weather_data"`
	AIAnalysis  string `json:"ai_analysis"`
}
