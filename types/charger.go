package types

// ------------------------
// Charger I/O (board glue)
// ------------------------

// ChargerIOState is a read-back of the charger glue lines.
// Retained value: charger/io/state
type ChargerIOState struct {
	MuxEnabled bool   `json:"mux_enabled"`
	MuxChannel int    `json:"mux_channel"` // 1..4, decoded from (A0,A1)
	IDSense    string `json:"id_sense"`    // "present" | "absent"
	IDLevel1   bool   `json:"id_level1"`
	IDLevel2   bool   `json:"id_level2"`
	Input24V   bool   `json:"in_24v"`
	Input36V   bool   `json:"in_36v"`
	Input48V   bool   `json:"in_48v"`
}

// Controls. Empty strings leave the group untouched.
type ChargerIOControl struct {
	MuxEnable    *bool  `json:"mux_enable,omitempty"`
	MuxChannel   string `json:"mux_channel,omitempty"`   // "ch1".."ch4"
	IDLevel      string `json:"id_level,omitempty"`      // "all_lo" | "level1_hi" | "level2_hi" | "all_hi"
	InputVoltage string `json:"input_voltage,omitempty"` // "all_lo" | "24v" | "36v" | "48v" | "all_hi"
}
