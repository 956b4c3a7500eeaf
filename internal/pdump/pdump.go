// Package pdump optionally captures every forwarded (vl, payload) pair
// to a pcap file so Wireshark can inspect router traffic during
// development. It wraps each payload in a synthetic Ethernet/IPv4/UDP
// envelope purely so third-party tooling can open the capture; the
// partition's own traffic is opaque and never parsed by this package.
package pdump

import (
	"fmt"
	"net"
	"os"
	"slices"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"

	"github.com/arinc653/router/pkg/types"
	"github.com/arinc653/router/pkg/xiter"
)

// Tracer writes forwarded messages to a pcap capture. A nil *Tracer is
// valid and Trace on it is a no-op, so a partition can hold one
// unconditionally and pay nothing when tracing is disabled.
type Tracer struct {
	w      *pcapgo.Writer
	f      *os.File
	srcMAC net.HardwareAddr
	dstMAC net.HardwareAddr
	srcIP  net.IP
	dstIP  net.IP
	seq    uint32
}

// syntheticEndpoints are fixed placeholder addresses; only the UDP
// source and destination ports (both derived from the virtual link id)
// and payload vary between captured frames.
var (
	syntheticSrcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	syntheticDstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	syntheticSrcIP  = net.IPv4(10, 0, 0, 1)
	syntheticDstIP  = net.IPv4(10, 0, 0, 2)
)

// Open creates (or truncates) a pcap file at path and returns a Tracer
// that writes to it. Callers must Close the returned Tracer.
func Open(path string) (*Tracer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pdump: open %s: %w", path, err)
	}

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("pdump: write pcap header: %w", err)
	}

	return &Tracer{
		w:      w,
		f:      f,
		srcMAC: syntheticSrcMAC,
		dstMAC: syntheticDstMAC,
		srcIP:  syntheticSrcIP,
		dstIP:  syntheticDstIP,
	}, nil
}

// Close flushes and closes the underlying pcap file. It is safe to
// call on a nil Tracer.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	return t.f.Close()
}

// udpPortForVL maps a virtual link id onto the ephemeral UDP port
// range so distinct virtual links show up as distinct conversations in
// Wireshark's "Statistics > Conversations" view.
func udpPortForVL(vl types.VirtualLinkId) layers.UDPPort {
	return layers.UDPPort(49152 + uint16(vl)%16384)
}

// Trace appends one captured frame for a message forwarded on vl. It
// is a no-op on a nil Tracer, so disabling tracing costs nothing
// beyond the nil check.
func (t *Tracer) Trace(vl types.VirtualLinkId, payload []byte) error {
	if t == nil {
		return nil
	}

	frame, err := t.encode(vl, payload)
	if err != nil {
		return fmt.Errorf("pdump: encode vl %d: %w", vl, err)
	}

	t.seq++
	return t.w.WritePacket(gopacket.CaptureInfo{
		CaptureLength: len(frame),
		Length:        len(frame),
	}, frame)
}

// TraceBatch captures several forwarded messages in one call, writing
// them in the order of frames. It stops at the first frame that fails
// and names that frame's position in frames in the returned error.
func (t *Tracer) TraceBatch(frames []Frame) error {
	if t == nil {
		return nil
	}
	for i, f := range xiter.Enumerate(slices.Values(frames)) {
		if err := t.Trace(f.VL, f.Payload); err != nil {
			return fmt.Errorf("pdump: batch frame %d: %w", i, err)
		}
	}
	return nil
}

// Frame is one forwarded message queued for capture.
type Frame struct {
	VL      types.VirtualLinkId
	Payload []byte
}

func (t *Tracer) encode(vl types.VirtualLinkId, payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       t.srcMAC,
		DstMAC:       t.dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    t.srcIP,
		DstIP:    t.dstIP,
	}
	udp := &layers.UDP{
		SrcPort: udpPortForVL(vl),
		DstPort: udpPortForVL(vl),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
