package service

import "regexp"

// OpenWeather icon codes are two digits plus a day/night suffix ("10d");
// Visual Crossing (and the demo dataset) use descriptive names
// ("partly-cloudy-day").
var owmIconPattern = regexp.MustCompile(`^[0-9]{2}[dn]$`)

// WeatherIconURL builds the CDN image URL for an icon code, branching on
// which provider's vocabulary the code belongs to. Pure and stateless.
func WeatherIconURL(icon string) string {
	if icon == "" {
		return ""
	}
	if owmIconPattern.MatchString(icon) {
		return "https://openweathermap.org/img/wn/" + icon + "@2x.png"
	}
	return "https://raw.githubusercontent.com/visualcrossing/WeatherIcons/main/PNG/2nd%20Set%20-%20Color/" + icon + ".png"
}
