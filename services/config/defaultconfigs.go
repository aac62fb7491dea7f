package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that board
// -----------------------------------------------------------------------------

const cfgFA5510 = `{
  "id": "fa5510",
  "name": "FA5510 charger front end",
  "bases": {
    "adc10b": 1792,
    "tec": 3072,
    "usci_a": 1472
  },
  "charger": {
    "mux_en":    {"port": "P1", "pin": 7},
    "mux_a0":    {"port": "P1", "pin": 6},
    "mux_a1":    {"port": "P2", "pin": 0},
    "id_sense":  {"port": "P2", "pin": 1},
    "id_level1": {"port": "P2", "pin": 2},
    "id_level2": {"port": "P2", "pin": 3},
    "in_24v":    {"port": "P1", "pin": 3},
    "in_36v":    {"port": "P1", "pin": 4},
    "in_48v":    {"port": "P1", "pin": 5}
  },
  "bridge": {
    "transport": {"type": "uart", "uart": {"instance": 0, "baud": 115200}},
    "window": {"lo": 512, "hi": 4096}
  },
  "monitor": {
    "interval_ms": 1000,
    "channels": [0, 1, 2, 3],
    "ref_mV": 2500,
    "oversample": 4
  }
}`

var embeddedConfigs = map[string][]byte{
	"fa5510": []byte(cfgFA5510),
}
