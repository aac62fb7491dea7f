package adc10b

// ---------------- Field setters (CTL1 / CTL2 / window) ----------------

// SetResolution selects 8 or 10 bit conversions. ENC must be clear.
func (d *Device) SetResolution(r Resolution) error {
	if !r.valid() {
		return ErrInvalidParam
	}
	if err := d.requireIdle(); err != nil {
		return err
	}
	var v uint16
	if r == Resolution10Bit {
		v = ctl2RES
	}
	return d.regs.Update16(regCTL2, ctl2RES, v)
}

// Resolution reads back the RES bit.
func (d *Device) Resolution() (Resolution, error) {
	v, err := d.regs.Read16(regCTL2)
	if err != nil {
		return 0, err
	}
	if v&ctl2RES != 0 {
		return Resolution10Bit, nil
	}
	return Resolution8Bit, nil
}

// SetSampleHoldSignalInversion inverts the sample-and-hold trigger.
// ENC must be clear.
func (d *Device) SetSampleHoldSignalInversion(inverted bool) error {
	if err := d.requireIdle(); err != nil {
		return err
	}
	var v uint16
	if inverted {
		v = ctl1ISSH
	}
	return d.regs.Update16(regCTL1, ctl1ISSH, v)
}

// SetDataReadBackFormat selects how MEM0 encodes results. ENC must be clear.
func (d *Device) SetDataReadBackFormat(f DataFormat) error {
	if !f.valid() {
		return ErrInvalidParam
	}
	if err := d.requireIdle(); err != nil {
		return err
	}
	var v uint16
	if f == FormatSigned {
		v = ctl2DF
	}
	return d.regs.Update16(regCTL2, ctl2DF, v)
}

// DataReadBackFormat reads back the DF bit.
func (d *Device) DataReadBackFormat() (DataFormat, error) {
	v, err := d.regs.Read16(regCTL2)
	if err != nil {
		return 0, err
	}
	if v&ctl2DF != 0 {
		return FormatSigned, nil
	}
	return FormatBinary, nil
}

// EnableReferenceBurst powers the reference buffer only during
// sample-and-conversion.
func (d *Device) EnableReferenceBurst() error  { return d.regs.Set16(regCTL2, ctl2REFBURST) }
func (d *Device) DisableReferenceBurst() error { return d.regs.Clear16(regCTL2, ctl2REFBURST) }

// SetReferenceBufferSamplingRate trades reference buffer current for speed.
func (d *Device) SetReferenceBufferSamplingRate(r SamplingRate) error {
	if !r.valid() {
		return ErrInvalidParam
	}
	var v uint16
	if r == Rate50ksps {
		v = ctl2SR
	}
	return d.regs.Update16(regCTL2, ctl2SR, v)
}

// SetWindowComparator programs the thresholds in the active data format.
func (d *Device) SetWindowComparator(high, low uint16) error {
	if err := d.regs.Write16(regHI, high); err != nil {
		return err
	}
	return d.regs.Write16(regLO, low)
}
