package sim

import (
	"testing"
	"time"

	"github.com/arinc653/router/pkg/portio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func Test_SamplingPortLatestValue(t *testing.T) {
	p := NewSamplingPort(4, 0)
	require.NoError(t, p.Write([]byte{1, 2, 3}))
	require.NoError(t, p.Write([]byte{9, 9}))

	buf := make([]byte, 4)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, buf[:n])
}

func Test_SamplingPortNoDataYet(t *testing.T) {
	p := NewSamplingPort(4, 0)
	_, err := p.Read(make([]byte, 4))
	assert.ErrorIs(t, err, errNoData)
}

func Test_SamplingPortStale(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := NewSamplingPort(4, 10*time.Millisecond).WithClock(clock)
	require.NoError(t, p.Write([]byte{1}))

	clock.now = clock.now.Add(20 * time.Millisecond)
	_, err := p.Read(make([]byte, 4))
	assert.ErrorIs(t, err, errStale)
}

func Test_SamplingPortBufferTooSmall(t *testing.T) {
	p := NewSamplingPort(4, 0)
	require.NoError(t, p.Write([]byte{1, 2}))
	_, err := p.Read(make([]byte, 2))
	assert.ErrorIs(t, err, portio.ErrInsufficientMessageSize)
}

func Test_SamplingPortInputOutputAdapters(t *testing.T) {
	p := NewSamplingPort(4, 0)
	out := p.Output()
	in := p.Input()

	require.NoError(t, out.Send(7, []byte{5, 6}))

	buf := make([]byte, 4)
	vl, payload, err := in.Receive(7, buf)
	require.NoError(t, err)
	assert.Equal(t, 7, int(vl))
	assert.Equal(t, []byte{5, 6}, payload)
}

func Test_SamplingPortWriteTooLarge(t *testing.T) {
	p := NewSamplingPort(2, 0)
	err := p.Write([]byte{1, 2, 3})
	assert.ErrorIs(t, err, portio.ErrInsufficientMessageSize)
}
