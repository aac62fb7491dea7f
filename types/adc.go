package types

// ------------------------
// ADC10_B
// ------------------------

// ADCSample is one converted result.
// Retained value: adc/sample/<channel>
type ADCSample struct {
	Channel int     `json:"channel"`
	Raw     uint16  `json:"raw"`              // unsigned right-justified code, data format undone
	Bits    int     `json:"bits,omitempty"`   // resolution Raw is expressed at
	MilliV  int32   `json:"mV"`               // Raw scaled against RefMilliV at full scale
	Flags   uint16  `json:"flags"`            // IFG bits pending after the conversion
	N       int     `json:"n,omitempty"`      // conversions averaged into Raw
	StdDev  float64 `json:"stddev,omitempty"` // spread of the codes when N > 1
	TS      int64   `json:"ts_ns"`            // Unix ns
	Error   string  `json:"error,omitempty"`  // errcode on failure
}

// ADCState is the converter state derived from ON/ENC/BUSY.
type ADCState struct {
	State   string `json:"state"` // "off" | "idle" | "armed" | "converting"
	Channel int    `json:"channel"`
	Mode    string `json:"mode"`
	CTL0    uint16 `json:"ctl0"`
	CTL1    uint16 `json:"ctl1"`
	CTL2    uint16 `json:"ctl2"`
}
