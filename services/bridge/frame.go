package bridge

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"driverlib-go/regs"

	"github.com/sigurn/crc8"
)

// Wire format, all multi-byte fields little-endian:
//
//	request: 0xA5 seq op addr[4] value[2] crc
//	reply:   0x5A seq status value[2] crc
//
// crc is CRC-8/MAXIM over every preceding byte of the frame. A reply
// carries the seq of the request it answers.
const (
	requestStart byte = 0xA5
	replyStart   byte = 0x5A

	RequestLen = 10
	ReplyLen   = 6
)

// ProtocolVersion is the value a ping reply carries.
const ProtocolVersion uint16 = 2

type Op uint8

const (
	OpRead8   Op = 0x01
	OpWrite8  Op = 0x02
	OpRead16  Op = 0x03
	OpWrite16 Op = 0x04
	OpPing    Op = 0x0F
)

func (o Op) String() string {
	switch o {
	case OpRead8:
		return "read8"
	case OpWrite8:
		return "write8"
	case OpRead16:
		return "read16"
	case OpWrite16:
		return "write16"
	case OpPing:
		return "ping"
	}
	return fmt.Sprintf("op(0x%02x)", uint8(o))
}

func (o Op) valid() bool {
	switch o {
	case OpRead8, OpWrite8, OpRead16, OpWrite16, OpPing:
		return true
	}
	return false
}

func (o Op) wide() bool { return o == OpRead16 || o == OpWrite16 }

type Status uint8

const (
	StatusOK          Status = 0
	StatusBadChecksum Status = 1
	StatusBadOp       Status = 2
	StatusBadAddress  Status = 3
	StatusBusError    Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadChecksum:
		return "bad_checksum"
	case StatusBadOp:
		return "bad_op"
	case StatusBadAddress:
		return "bad_address"
	case StatusBusError:
		return "bus_error"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

type Request struct {
	Seq   uint8
	Op    Op
	Addr  regs.Addr
	Value uint16
}

type Reply struct {
	Seq    uint8
	Status Status
	Value  uint16
}

var (
	errChecksum = errors.New("bridge: frame checksum mismatch")

	crcTable = crc8.MakeTable(crc8.CRC8_MAXIM)
)

func checksum(b []byte) uint8 { return crc8.Checksum(b, crcTable) }

func (r Request) Encode() [RequestLen]byte {
	var f [RequestLen]byte
	f[0] = requestStart
	f[1] = r.Seq
	f[2] = byte(r.Op)
	binary.LittleEndian.PutUint32(f[3:7], uint32(r.Addr))
	binary.LittleEndian.PutUint16(f[7:9], r.Value)
	f[9] = checksum(f[:9])
	return f
}

func (r Reply) Encode() [ReplyLen]byte {
	var f [ReplyLen]byte
	f[0] = replyStart
	f[1] = r.Seq
	f[2] = byte(r.Status)
	binary.LittleEndian.PutUint16(f[3:5], r.Value)
	f[5] = checksum(f[:5])
	return f
}

// DecodeRequest parses a complete request frame. A checksum mismatch
// still returns the decoded fields alongside the error.
func DecodeRequest(f []byte) (Request, error) {
	if len(f) != RequestLen || f[0] != requestStart {
		return Request{}, fmt.Errorf("bridge: malformed request frame % x", f)
	}
	r := Request{
		Seq:   f[1],
		Op:    Op(f[2]),
		Addr:  regs.Addr(binary.LittleEndian.Uint32(f[3:7])),
		Value: binary.LittleEndian.Uint16(f[7:9]),
	}
	if checksum(f[:9]) != f[9] {
		return r, errChecksum
	}
	return r, nil
}

func DecodeReply(f []byte) (Reply, error) {
	if len(f) != ReplyLen || f[0] != replyStart {
		return Reply{}, fmt.Errorf("bridge: malformed reply frame % x", f)
	}
	r := Reply{Seq: f[1], Status: Status(f[2]), Value: binary.LittleEndian.Uint16(f[3:5])}
	if checksum(f[:5]) != f[5] {
		return r, errChecksum
	}
	return r, nil
}

// readFrame skips bytes until start, then reads the rest of an n-byte
// frame. Bytes lost to line noise are therefore dropped up to the next
// start byte.
func readFrame(br *bufio.Reader, start byte, buf []byte) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if b == start {
			break
		}
	}
	buf[0] = start
	for i := 1; i < len(buf); i++ {
		b, err := br.ReadByte()
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}
