package types

// ------------------------
// Display
// ------------------------

type DisplayInfo struct {
	Controller string `json:"controller"` // "sh1106"
	Bus        string `json:"bus"`
	Addr       uint16 `json:"addr"`
	Width      int16  `json:"width"`
	Height     int16  `json:"height"`
}

// DisplayLines replaces the text shown on a character-cell status screen.
type DisplayLines struct {
	Lines []string `json:"lines"`
}
