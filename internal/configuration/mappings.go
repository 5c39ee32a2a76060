package configuration

type MappingConfig struct {
	ID      string             `json:"id"`
	Fans    []MappingFanConfig `json:"fans"`
	Sensors []string           `json:"sensors"`
}

// MappingFanConfig is one fan entry of a mapping, configured either as
// "name" or "name*modifier".
type MappingFanConfig struct {
	Fan      string  `json:"fan"`
	Modifier float64 `json:"modifier"`
}
