package types

// ------------------------
// Button
// ------------------------

type ButtonInfo struct {
	Pin int `json:"pin"`
}

type ButtonValue struct {
	Pressed bool `json:"pressed"`
}

// ------------------------
// LED (boolean)
// ------------------------

type LEDInfo struct {
	Pin int `json:"pin"`
}

type LEDValue struct {
	On bool `json:"on"`
}

type LEDSet struct {
	On bool `json:"on"`
}
