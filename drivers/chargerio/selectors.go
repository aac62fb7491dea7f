package chargerio

import "driverlib-go/errcode"

var ErrUnknownSelector = &errcode.E{C: errcode.InvalidParams, Op: "chargerio", Msg: "unknown selector"}

type IDSenseStatus uint8

const (
	NoChargerID IDSenseStatus = iota
	ChargerIDPresent
)

func (s IDSenseStatus) String() string {
	if s == ChargerIDPresent {
		return "present"
	}
	return "absent"
}

type IDLevel uint8

const (
	IDLevelAllLow IDLevel = iota
	IDLevel1High
	IDLevel2High
	IDLevelAllHigh
)

var idLevelNames = map[string]IDLevel{
	"all_lo":    IDLevelAllLow,
	"level1_hi": IDLevel1High,
	"level2_hi": IDLevel2High,
	"all_hi":    IDLevelAllHigh,
}

func ParseIDLevel(s string) (IDLevel, error) {
	if v, ok := idLevelNames[s]; ok {
		return v, nil
	}
	return IDLevelAllLow, ErrUnknownSelector
}

type MuxChannel uint8

const (
	MuxCh1 MuxChannel = iota + 1
	MuxCh2
	MuxCh3
	MuxCh4
)

// lines returns the (A0, A1) levels for ch.
func (ch MuxChannel) lines() (a0, a1, ok bool) {
	switch ch {
	case MuxCh1:
		return false, false, true
	case MuxCh2:
		return true, false, true
	case MuxCh3:
		return false, true, true
	case MuxCh4:
		return true, true, true
	}
	return false, false, false
}

func muxFromLines(a0, a1 bool) MuxChannel {
	ch := MuxCh1
	if a0 {
		ch++
	}
	if a1 {
		ch += 2
	}
	return ch
}

func ParseMuxChannel(s string) (MuxChannel, error) {
	switch s {
	case "ch1", "1":
		return MuxCh1, nil
	case "ch2", "2":
		return MuxCh2, nil
	case "ch3", "3":
		return MuxCh3, nil
	case "ch4", "4":
		return MuxCh4, nil
	}
	return 0, ErrUnknownSelector
}

type InputVoltage uint8

const (
	InputVoltageAllLow InputVoltage = iota
	InputVoltage24V
	InputVoltage36V
	InputVoltage48V
	InputVoltageAllHigh
)

var inputVoltageNames = map[string]InputVoltage{
	"all_lo": InputVoltageAllLow,
	"24v":    InputVoltage24V,
	"36v":    InputVoltage36V,
	"48v":    InputVoltage48V,
	"all_hi": InputVoltageAllHigh,
}

func ParseInputVoltage(s string) (InputVoltage, error) {
	if v, ok := inputVoltageNames[s]; ok {
		return v, nil
	}
	return InputVoltageAllLow, ErrUnknownSelector
}
