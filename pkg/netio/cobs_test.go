package netio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_COBSRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x01, 0x02, 0x03},
		{0x00, 0x00, 0x00},
		{0x11, 0x22, 0x00, 0x00, 0x33},
		make([]byte, 300), // 300 zero bytes: a long run of one-byte blocks
	}
	for _, data := range cases {
		encoded := cobsEncode(data)
		assert.NotContains(t, encoded, byte(0x00))

		decoded, err := cobsDecode(encoded)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	}
}

func Test_COBSDecodeEmptyInput(t *testing.T) {
	_, err := cobsDecode(nil)
	assert.ErrorIs(t, err, errCOBSEmpty)
}

func Test_COBSDecodeRejectsEmbeddedZero(t *testing.T) {
	_, err := cobsDecode([]byte{0x02, 0x41, 0x00})
	assert.ErrorIs(t, err, errCOBSZeroInCode)
}

func Test_COBSDecodeRejectsTruncatedBlock(t *testing.T) {
	_, err := cobsDecode([]byte{0x05, 0x41, 0x42})
	assert.ErrorIs(t, err, errCOBSTruncated)
}

func Test_CRC16USBKnownVector(t *testing.T) {
	// "123456789" is the standard CRC check string; CRC-16/USB of it is 0xB4C8.
	got := crc16USB([]byte("123456789"))
	assert.Equal(t, uint16(0xB4C8), got)
}
