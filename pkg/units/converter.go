package units

import "math"

// KwToW converts for storage. Negative values clamp to 0.
func KwToW(kw float64) uint32 {
	if kw < 0 {
		return 0
	}
	return uint32(math.Round(kw * 1000))
}

func WToKw(w uint32) float64 {
	return float64(w) / 1000
}

// KwhToWh converts for storage. Negative values clamp to 0.
func KwhToWh(kwh float64) uint64 {
	if kwh < 0 {
		return 0
	}
	return uint64(math.Round(kwh * 1000))
}

func WhToKwh(wh uint64) float64 {
	return float64(wh) / 1000
}
