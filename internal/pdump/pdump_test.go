package pdump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arinc653/router/pkg/types"
)

func Test_NilTracerTraceIsNoOp(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Trace(1, []byte("hello")))
	assert.NoError(t, tr.Close())
}

func Test_TraceWritesReadablePcap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	tr, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, tr.Trace(7, []byte{0x01, 0x02, 0x03}))
	require.NoError(t, tr.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader, err := pcapgo.NewReader(f)
	require.NoError(t, err)

	data, _, err := reader.ReadPacketData()
	require.NoError(t, err)

	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	require.Empty(t, pkt.ErrorLayer())

	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	require.NotNil(t, udpLayer)
	udp := udpLayer.(*layers.UDP)
	assert.Equal(t, udpPortForVL(7), udp.SrcPort)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, []byte(udp.Payload))
}

func Test_TraceBatchPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	tr, err := Open(path)
	require.NoError(t, err)

	frames := []Frame{
		{VL: types.VirtualLinkId(1), Payload: []byte{0xAA}},
		{VL: types.VirtualLinkId(2), Payload: []byte{0xBB}},
	}
	require.NoError(t, tr.TraceBatch(frames))
	require.NoError(t, tr.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	reader, err := pcapgo.NewReader(f)
	require.NoError(t, err)

	var payloads [][]byte
	for {
		data, _, err := reader.ReadPacketData()
		if err != nil {
			break
		}
		pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
		udp := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
		payloads = append(payloads, []byte(udp.Payload))
	}

	require.Len(t, payloads, 2)
	assert.Equal(t, []byte{0xAA}, payloads[0])
	assert.Equal(t, []byte{0xBB}, payloads[1])
}
