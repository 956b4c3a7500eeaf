package sim

import (
	"testing"

	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_QueuingPortFIFO(t *testing.T) {
	p := NewQueuingPort(types.FIFO, 4, 4)
	require.NoError(t, p.Write([]byte{1}))
	require.NoError(t, p.Write([]byte{2}))

	buf := make([]byte, 4)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, buf[:n])

	n, err = p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, buf[:n])
}

func Test_QueuingPortPriority(t *testing.T) {
	p := NewQueuingPort(types.Priority, 4, 4)
	require.NoError(t, p.Write([]byte{1, 0xAA}))
	require.NoError(t, p.Write([]byte{9, 0xBB}))
	require.NoError(t, p.Write([]byte{5, 0xCC}))

	buf := make([]byte, 4)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(9), buf[:n][0])
}

func Test_QueuingPortTimesOutWhenEmpty(t *testing.T) {
	p := NewQueuingPort(types.FIFO, 4, 4)
	_, err := p.Read(make([]byte, 4))
	assert.ErrorIs(t, err, errTimedOut)
}

func Test_QueuingPortEmptyMessageDropped(t *testing.T) {
	p := NewQueuingPort(types.FIFO, 4, 4)
	require.NoError(t, p.Write(nil))

	_, err := p.Read(make([]byte, 4))
	assert.ErrorIs(t, err, errEmptyBody)
}

func Test_QueuingPortFullRejectsWrite(t *testing.T) {
	p := NewQueuingPort(types.FIFO, 1, 4)
	require.NoError(t, p.Write([]byte{1}))
	err := p.Write([]byte{2})
	assert.ErrorIs(t, err, errTimedOut)
}

func Test_QueuingPortInputOutputAdapters(t *testing.T) {
	p := NewQueuingPort(types.FIFO, 4, 4)
	out := p.Output()
	in := p.Input()

	require.NoError(t, out.Send(3, []byte{0x42}))

	buf := make([]byte, 4)
	vl, payload, err := in.Receive(3, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, int(vl))
	assert.Equal(t, []byte{0x42}, payload)
}

func Test_QueuingPortReceiveErrorIsPortError(t *testing.T) {
	p := NewQueuingPort(types.FIFO, 1, 4)
	_, _, err := p.Input().Receive(0, make([]byte, 4))
	var portErr *portio.PortError
	require.ErrorAs(t, err, &portErr)
	assert.Equal(t, portio.Receive, portErr.Kind)
}
