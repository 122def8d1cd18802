package weather

// Icon names the artwork a client shows for a weather code.
type Icon string

const (
	IconSunny        Icon = "sunny"
	IconPartlyCloudy Icon = "partly-cloudy"
	IconOvercast     Icon = "overcast"
	IconFog          Icon = "fog"
	IconDrizzle      Icon = "drizzle"
	IconRain         Icon = "rain"
	IconSnow         Icon = "snow"
	IconStorm        Icon = "storm"
)

// CodeInfo describes a WMO weather interpretation code.
type CodeInfo struct {
	Code        int       `json:"code"`
	Description string    `json:"description"`
	Icon        Icon      `json:"icon"`
	Condition   Condition `json:"condition"`
}

var codeDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeCode maps a WMO code to its description, icon and condition.
// Unknown codes are described as "Unknown" with the overcast icon.
func DescribeCode(code int) CodeInfo {
	desc, ok := codeDescriptions[code]
	if !ok {
		desc = "Unknown"
	}
	icon, cond := classifyCode(code)
	if !ok {
		cond = ConditionUnknown
	}
	return CodeInfo{
		Code:        code,
		Description: desc,
		Icon:        icon,
		Condition:   cond,
	}
}

// IconFor returns the icon for a WMO code.
func IconFor(code int) Icon {
	icon, _ := classifyCode(code)
	return icon
}

func classifyCode(code int) (Icon, Condition) {
	switch {
	case code == 0 || code == 1:
		return IconSunny, ConditionClear
	case code == 2:
		return IconPartlyCloudy, ConditionCloudy
	case code == 3:
		return IconOvercast, ConditionCloudy
	case code == 45 || code == 48:
		return IconFog, ConditionFog
	case code >= 51 && code <= 57:
		return IconDrizzle, ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return IconRain, ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return IconSnow, ConditionSnow
	case code >= 95 && code <= 99:
		return IconStorm, ConditionStorm
	default:
		return IconOvercast, ConditionUnknown
	}
}
