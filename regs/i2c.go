package regs

import "tinygo.org/x/drivers"

// I2CAddressDefault is the 7-bit address of the debug bridge's register
// window.
const I2CAddressDefault = 0x48

// I2C reaches a target's register space through an I2C register window:
// the access address goes out first as four little-endian bytes, followed
// by the data bytes for a store; a load reads the data bytes back. Data is
// little-endian (low then high), as with SMBus word transfers.
type I2C struct {
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [6]byte
	r [2]byte
}

func NewI2C(bus drivers.I2C, addr uint16) *I2C {
	if addr == 0 {
		addr = I2CAddressDefault
	}
	return &I2C{bus: bus, addr: addr}
}

var _ Bus = (*I2C)(nil)

func (d *I2C) Read8(a Addr) (uint8, error) {
	d.putAddr(a)
	if err := d.bus.Tx(d.addr, d.w[:4], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *I2C) Write8(a Addr, v uint8) error {
	d.putAddr(a)
	d.w[4] = v
	return d.bus.Tx(d.addr, d.w[:5], nil)
}

func (d *I2C) Read16(a Addr) (uint16, error) {
	d.putAddr(a)
	if err := d.bus.Tx(d.addr, d.w[:4], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}

func (d *I2C) Write16(a Addr, v uint16) error {
	d.putAddr(a)
	d.w[4] = byte(v)      // low
	d.w[5] = byte(v >> 8) // high
	return d.bus.Tx(d.addr, d.w[:6], nil)
}

func (d *I2C) putAddr(a Addr) {
	d.w[0] = byte(a)
	d.w[1] = byte(a >> 8)
	d.w[2] = byte(a >> 16)
	d.w[3] = byte(a >> 24)
}
