package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewName(t *testing.T) {
	n, err := NewName("Advisory_1")
	require.NoError(t, err)
	assert.Equal(t, "Advisory_1", n.String())
	assert.False(t, n.IsZero())
}

func Test_NewNameEmpty(t *testing.T) {
	_, err := NewName("")
	assert.Error(t, err)
}

func Test_NewNameTooLong(t *testing.T) {
	_, err := NewName(strings.Repeat("a", MaxNameLength+1))
	assert.Error(t, err)
}

func Test_NewNameExactlyMaxLength(t *testing.T) {
	n, err := NewName(strings.Repeat("a", MaxNameLength))
	require.NoError(t, err)
	assert.Equal(t, MaxNameLength, len(n.String()))
}

func Test_NewNameNonPrintable(t *testing.T) {
	_, err := NewName("abc\x01")
	assert.Error(t, err)
}

func Test_ZeroNameIsZero(t *testing.T) {
	var n Name
	assert.True(t, n.IsZero())
}

func Test_VirtualLinkIdString(t *testing.T) {
	assert.Equal(t, "VL5", VirtualLinkId(5).String())
}

func Test_DataRateBytes(t *testing.T) {
	r := DataRate(8_000_000)
	assert.Equal(t, uint64(1_000_000), uint64(r.Bytes()))
}
