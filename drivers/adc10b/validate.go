package adc10b

import "driverlib-go/errcode"

var (
	// ErrInvalidParam reports an enumerated argument outside its valid set.
	// Nothing is written to the device when it is returned.
	ErrInvalidParam = &errcode.E{C: errcode.InvalidParams, Op: "adc10b", Msg: "parameter out of range"}

	// ErrConversionEnabled reports a reconfiguration attempted while ENC is
	// set. Call DisableConversions first.
	ErrConversionEnabled = &errcode.E{C: errcode.InvalidState, Op: "adc10b", Msg: "conversion enabled (ENC set)"}

	// ErrBusyTimeout reports that BUSY did not clear within WaitPolicy.Timeout.
	// ENC is left set.
	ErrBusyTimeout = &errcode.E{C: errcode.Timeout, Op: "adc10b", Msg: "conversion did not complete"}
)
