package netio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/arinc653/router/pkg/types"
)

// Framer turns a (vl, payload) pair into a wire frame and back, per
// spec §4.2/§6. The two implementations below are the only mandatory
// wire formats a compatible implementation must support; a driver
// picks one at construction time and the router never inspects it.
type Framer interface {
	Encode(vl types.VirtualLinkId, payload []byte) ([]byte, error)
	Decode(frame []byte) (types.VirtualLinkId, []byte, error)
}

const vlTagSize = 4

// DatagramFramer implements the datagram-class wire format: the raw
// tagged payload `vl(4 BE) ‖ payload`, relying on the transport to
// preserve message boundaries.
type DatagramFramer struct{}

// Encode implements Framer.
func (DatagramFramer) Encode(vl types.VirtualLinkId, payload []byte) ([]byte, error) {
	frame := make([]byte, vlTagSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(vl))
	copy(frame[vlTagSize:], payload)
	return frame, nil
}

// Decode implements Framer.
func (DatagramFramer) Decode(frame []byte) (types.VirtualLinkId, []byte, error) {
	if len(frame) < vlTagSize {
		return 0, nil, errFrameTooShort
	}
	vl := types.VirtualLinkId(binary.BigEndian.Uint32(frame))
	return vl, frame[vlTagSize:], nil
}

var errFrameTooShort = errors.New("frame shorter than the virtual link tag")

// ByteStreamFramer implements the byte-stream-class wire format:
// COBS(vl ‖ payload ‖ crc16/USB) terminated by a zero byte, for
// transports that do not preserve message boundaries (UARTs, raw
// byte pipes).
type ByteStreamFramer struct{}

// Encode implements Framer.
func (ByteStreamFramer) Encode(vl types.VirtualLinkId, payload []byte) ([]byte, error) {
	body := make([]byte, vlTagSize+len(payload)+2)
	binary.BigEndian.PutUint32(body, uint32(vl))
	copy(body[vlTagSize:], payload)
	crc := crc16USB(body[:vlTagSize+len(payload)])
	binary.BigEndian.PutUint16(body[vlTagSize+len(payload):], crc)

	encoded := cobsEncode(body)
	frame := make([]byte, len(encoded)+1)
	copy(frame, encoded)
	frame[len(encoded)] = 0x00
	return frame, nil
}

// Decode implements Framer. frame must include the trailing zero
// terminator; callers that scan a byte stream for 0x00 delimiters can
// pass the delimited slice including that terminator directly.
func (ByteStreamFramer) Decode(frame []byte) (types.VirtualLinkId, []byte, error) {
	if len(frame) == 0 || frame[len(frame)-1] != 0x00 {
		return 0, nil, errMissingTerminator
	}
	body, err := cobsDecode(frame[:len(frame)-1])
	if err != nil {
		return 0, nil, fmt.Errorf("cobs decode: %w", err)
	}
	if len(body) < vlTagSize+2 {
		return 0, nil, errFrameTooShort
	}

	payloadEnd := len(body) - 2
	wantCRC := binary.BigEndian.Uint16(body[payloadEnd:])
	gotCRC := crc16USB(body[:payloadEnd])
	if wantCRC != gotCRC {
		return 0, nil, errCRCMismatch
	}

	vl := types.VirtualLinkId(binary.BigEndian.Uint32(body))
	return vl, body[vlTagSize:payloadEnd], nil
}

var (
	errMissingTerminator = errors.New("byte-stream frame missing zero terminator")
	errCRCMismatch       = errors.New("crc-16/usb mismatch")
)

// crc16USB computes the CRC-16/USB checksum: polynomial 0x8005
// reflected (0xA001), initial value 0xFFFF, final XOR 0xFFFF.
func crc16USB(data []byte) uint16 {
	const poly = 0xA001
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
	}
	return crc ^ 0xFFFF
}
