package config

import "sort"

func preset(values []float64, lo, hi float64, count int) *Config {
	cfg := DefaultConfig()
	cfg.Mach = MachConfig{Min: lo, Max: hi, Count: count, Values: values}
	return cfg
}

var Presets = map[string]*Config{
	"default":    DefaultConfig(),
	"paper":      preset([]float64{0.5, 1, 2}, 0.5, 2, 3),
	"subsonic":   preset(nil, 0, 0.9, 10),
	"supersonic": preset(nil, 1, 5, 21),
	"hypersonic": preset(nil, 5, 10, 26),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Mach.Values = append([]float64(nil), cfg.Mach.Values...)
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
