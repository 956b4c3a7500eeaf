package netio

import (
	"testing"

	"github.com/arinc653/router/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DatagramFramerEncodeMatchesScenario(t *testing.T) {
	// spec §8 scenario 3: VL 5, payload 0xAA,0xBB -> 00 00 00 05 AA BB.
	frame, err := DatagramFramer{}.Encode(5, []byte{0xAA, 0xBB})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x05, 0xAA, 0xBB}, frame)
}

func Test_DatagramFramerRoundTrip(t *testing.T) {
	frame, err := DatagramFramer{}.Encode(9, []byte{0xDE, 0xAD})
	require.NoError(t, err)

	vl, payload, err := DatagramFramer{}.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, types.VirtualLinkId(9), vl)
	assert.Equal(t, []byte{0xDE, 0xAD}, payload)
}

func Test_DatagramFramerDecodeTooShort(t *testing.T) {
	_, _, err := DatagramFramer{}.Decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, errFrameTooShort)
}

func Test_ByteStreamFramerRoundTrip(t *testing.T) {
	frame, err := ByteStreamFramer{}.Encode(7, []byte{0x01, 0x02, 0x03, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), frame[len(frame)-1])
	assert.NotContains(t, frame[:len(frame)-1], byte(0x00))

	vl, payload, err := ByteStreamFramer{}.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, types.VirtualLinkId(7), vl)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x00, 0x00}, payload)
}

func Test_ByteStreamFramerDecodeMissingTerminator(t *testing.T) {
	_, _, err := ByteStreamFramer{}.Decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, errMissingTerminator)
}

func Test_ByteStreamFramerDecodeCorruptedCRC(t *testing.T) {
	frame, err := ByteStreamFramer{}.Encode(3, []byte{0x11, 0x22})
	require.NoError(t, err)

	decoded, err := cobsDecode(frame[:len(frame)-1])
	require.NoError(t, err)
	decoded[len(decoded)-1] ^= 0xFF // flip a CRC byte
	corrupted := append(cobsEncode(decoded), 0x00)

	_, _, err = ByteStreamFramer{}.Decode(corrupted)
	assert.ErrorIs(t, err, errCRCMismatch)
}
