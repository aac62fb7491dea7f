package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"driverlib-go/drivers/adc10b"
	"driverlib-go/drivers/chargerio"
	"driverlib-go/drivers/gpio"
	"driverlib-go/drivers/tec"
	"driverlib-go/drivers/usciuart"
	"driverlib-go/services/bridge"
	"driverlib-go/types"

	"gopkg.in/yaml.v3"
)

// Board describes one board: where its peripherals live, how the charger
// glue is wired, and the service settings published on config/<key>.
type Board struct {
	ID      string               `json:"id"`
	Name    string               `json:"name,omitempty"`
	Bases   Bases                `json:"bases"`
	Charger ChargerPins          `json:"charger"`
	Bridge  *bridge.Config       `json:"bridge,omitempty"`
	Monitor *types.MonitorConfig `json:"monitor,omitempty"`
}

// Bases are peripheral base addresses. Zero selects the part default.
type Bases struct {
	ADC  uint32 `json:"adc10b,omitempty"`
	TEC  uint32 `json:"tec,omitempty"`
	UART uint32 `json:"usci_a,omitempty"`
}

// PinRef is a pin as written in config: {"port":"P1","pin":7}.
type PinRef struct {
	Port string `json:"port"`
	Pin  int    `json:"pin"`
}

type ChargerPins struct {
	MuxEN    PinRef `json:"mux_en"`
	MuxA0    PinRef `json:"mux_a0"`
	MuxA1    PinRef `json:"mux_a1"`
	IDSense  PinRef `json:"id_sense"`
	IDLevel1 PinRef `json:"id_level1"`
	IDLevel2 PinRef `json:"id_level2"`
	In24V    PinRef `json:"in_24v"`
	In36V    PinRef `json:"in_36v"`
	In48V    PinRef `json:"in_48v"`
}

func (r PinRef) resolve(name string) (chargerio.Pin, error) {
	p, err := gpio.ParsePort(r.Port)
	if err != nil {
		return chargerio.Pin{}, fmt.Errorf("charger.%s: port %q: %w", name, r.Port, err)
	}
	m, err := gpio.PinNumber(r.Pin)
	if err != nil {
		return chargerio.Pin{}, fmt.Errorf("charger.%s: pin %d: %w", name, r.Pin, err)
	}
	return chargerio.Pin{Port: p, Pin: m}, nil
}

// Layout converts the pin names into a chargerio layout. An entirely
// empty section yields the default wiring.
func (c ChargerPins) Layout() (chargerio.Layout, error) {
	if c == (ChargerPins{}) {
		return chargerio.DefaultLayout(), nil
	}
	var l chargerio.Layout
	for _, f := range []struct {
		name string
		ref  PinRef
		dst  *chargerio.Pin
	}{
		{"mux_en", c.MuxEN, &l.MuxEN},
		{"mux_a0", c.MuxA0, &l.MuxA0},
		{"mux_a1", c.MuxA1, &l.MuxA1},
		{"id_sense", c.IDSense, &l.IDSense},
		{"id_level1", c.IDLevel1, &l.IDLevel1},
		{"id_level2", c.IDLevel2, &l.IDLevel2},
		{"in_24v", c.In24V, &l.In24V},
		{"in_36v", c.In36V, &l.In36V},
		{"in_48v", c.In48V, &l.In48V},
	} {
		p, err := f.ref.resolve(f.name)
		if err != nil {
			return chargerio.Layout{}, err
		}
		*f.dst = p
	}
	return l, nil
}

func (b Bases) withDefaults() Bases {
	if b.ADC == 0 {
		b.ADC = adc10b.BaseAddressDefault
	}
	if b.TEC == 0 {
		b.TEC = uint32(tec.BaseAddressTEC0)
	}
	if b.UART == 0 {
		b.UART = uint32(usciuart.BaseAddressA0)
	}
	return b
}

// Parse decodes a board document and fills default base addresses.
func Parse(raw []byte) (Board, error) {
	var b Board
	if err := json.Unmarshal(raw, &b); err != nil {
		return Board{}, fmt.Errorf("config: %w", err)
	}
	if _, err := b.Charger.Layout(); err != nil {
		return Board{}, fmt.Errorf("config: %w", err)
	}
	b.Bases = b.Bases.withDefaults()
	return b, nil
}

// Lookup resolves an embedded board by ID.
func Lookup(id string) (Board, error) {
	raw, ok := EmbeddedConfigLookup(id)
	if !ok || len(raw) == 0 {
		return Board{}, fmt.Errorf("config: no embedded config for board %q", id)
	}
	return Parse(raw)
}

// ReadFile returns the board document at path as JSON. Files ending in
// .yaml or .yml are converted.
func ReadFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return json.Marshal(doc)
	}
	return raw, nil
}

// Load reads and parses a board file.
func Load(path string) (Board, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return Board{}, err
	}
	return Parse(raw)
}
