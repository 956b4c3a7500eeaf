package config

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/arinc653/router/pkg/types"
)

// This is the fixed binary encoding a partition reads at
// reconfiguration time (spec §4.3/§6): a length-prefixed, big-endian
// record stream with no external schema dependency, so a host harness
// can write it straight into a sampling port without pulling in a
// general-purpose serialization library on the runtime side (the YAML
// authoring surface in yaml.go is what operators write by hand; this
// is what cmd/gen-config compiles it down to).

const wireMagic = "RTC1"

// Encode serializes cfg into the fixed binary form.
func Encode(cfg RouterConfig) []byte {
	var buf bytes.Buffer
	buf.WriteString(wireMagic)

	writeU32(&buf, cfg.StackSize)

	writeU32(&buf, uint32(len(cfg.Ports)))
	for _, entry := range orderedPorts(cfg.Ports) {
		writeString(&buf, entry.name.String())
		writePort(&buf, entry.port)
	}

	writeU32(&buf, uint32(len(cfg.Interfaces)))
	for _, entry := range orderedInterfaces(cfg.Interfaces) {
		writeString(&buf, entry.name.String())
		writeString(&buf, entry.iface.Source)
		writeString(&buf, entry.iface.Destination)
		writeU64(&buf, uint64(entry.iface.Rate))
		writeU32(&buf, uint32(entry.iface.MTU))
	}

	writeU32(&buf, uint32(len(cfg.VirtualLinks)))
	for _, entry := range orderedVLs(cfg.VirtualLinks) {
		writeU32(&buf, uint32(entry.vl))
		writeString(&buf, entry.link.Source.String())
		writeU64(&buf, uint64(entry.link.Period))
		writeU32(&buf, uint32(len(entry.link.Destinations)))
		for _, dst := range entry.link.Destinations {
			writeString(&buf, dst.String())
		}
	}

	return buf.Bytes()
}

// Decode parses the fixed binary form produced by Encode, re-running
// it through Builder so a corrupt or semantically invalid blob is
// rejected the same way a hand-assembled config would be.
func Decode(data []byte, limits Limits) (RouterConfig, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(wireMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != wireMagic {
		return RouterConfig{}, &Error{Kind: Format, Cause: fmt.Errorf("bad magic")}
	}

	stackSize, err := readU32(r)
	if err != nil {
		return RouterConfig{}, &Error{Kind: Format, Cause: err}
	}
	b := NewBuilder(stackSize, limits)

	portCount, err := readU32(r)
	if err != nil {
		return RouterConfig{}, &Error{Kind: Format, Cause: err}
	}
	for i := uint32(0); i < portCount; i++ {
		name, err := readString(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		port, err := readPort(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		b.Port(name, port)
	}

	ifaceCount, err := readU32(r)
	if err != nil {
		return RouterConfig{}, &Error{Kind: Format, Cause: err}
	}
	for i := uint32(0); i < ifaceCount; i++ {
		name, err := readString(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		source, err := readString(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		destination, err := readString(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		rate, err := readU64(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		mtu, err := readU32(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		b.Interface(name, InterfaceConfig{
			Source:      source,
			Destination: destination,
			Rate:        types.DataRate(rate),
			MTU:         int(mtu),
		})
	}

	vlCount, err := readU32(r)
	if err != nil {
		return RouterConfig{}, &Error{Kind: Format, Cause: err}
	}
	for i := uint32(0); i < vlCount; i++ {
		vlID, err := readU32(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		source, err := readString(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		period, err := readU64(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		b.VirtualLink(types.VirtualLinkId(vlID), source)
		b.Schedule(types.VirtualLinkId(vlID), time.Duration(period))

		dstCount, err := readU32(r)
		if err != nil {
			return RouterConfig{}, &Error{Kind: Format, Cause: err}
		}
		for j := uint32(0); j < dstCount; j++ {
			dst, err := readString(r)
			if err != nil {
				return RouterConfig{}, &Error{Kind: Format, Cause: err}
			}
			b.Destination(types.VirtualLinkId(vlID), dst)
		}
	}

	return b.Build()
}

func writePort(buf *bytes.Buffer, p PortConfig) {
	buf.WriteByte(byte(p.Kind))
	switch p.Kind {
	case SamplingIn:
		writeU32(buf, uint32(p.SamplingIn.MsgSize))
		writeU64(buf, uint64(p.SamplingIn.RefreshPeriod))
	case SamplingOut:
		writeU32(buf, uint32(p.SamplingOut.MsgSize))
	case QueuingIn:
		buf.WriteByte(byte(p.QueuingIn.Discipline))
		writeU32(buf, uint32(p.QueuingIn.MsgCount))
		writeU32(buf, uint32(p.QueuingIn.MsgSize))
	case QueuingOut:
		buf.WriteByte(byte(p.QueuingOut.Discipline))
		writeU32(buf, uint32(p.QueuingOut.MsgCount))
		writeU32(buf, uint32(p.QueuingOut.MsgSize))
	}
}

func readPort(r *bytes.Reader) (PortConfig, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return PortConfig{}, err
	}
	switch PortKind(kindByte) {
	case SamplingIn:
		msgSize, err := readU32(r)
		if err != nil {
			return PortConfig{}, err
		}
		refresh, err := readU64(r)
		if err != nil {
			return PortConfig{}, err
		}
		return NewSamplingIn(int(msgSize), time.Duration(refresh)), nil
	case SamplingOut:
		msgSize, err := readU32(r)
		if err != nil {
			return PortConfig{}, err
		}
		return NewSamplingOut(int(msgSize)), nil
	case QueuingIn:
		discByte, err := r.ReadByte()
		if err != nil {
			return PortConfig{}, err
		}
		msgCount, err := readU32(r)
		if err != nil {
			return PortConfig{}, err
		}
		msgSize, err := readU32(r)
		if err != nil {
			return PortConfig{}, err
		}
		return NewQueuingIn(QueuingDiscipline(discByte), int(msgCount), int(msgSize)), nil
	case QueuingOut:
		discByte, err := r.ReadByte()
		if err != nil {
			return PortConfig{}, err
		}
		msgCount, err := readU32(r)
		if err != nil {
			return PortConfig{}, err
		}
		msgSize, err := readU32(r)
		if err != nil {
			return PortConfig{}, err
		}
		return NewQueuingOut(QueuingDiscipline(discByte), int(msgCount), int(msgSize)), nil
	default:
		return PortConfig{}, fmt.Errorf("unknown port kind %d", kindByte)
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// orderedPorts, orderedInterfaces, and orderedVLs impose a
// deterministic iteration order over the config's maps, so Encode
// produces byte-identical output across runs for the same logical
// config (map iteration order in Go is randomized).
func orderedPorts(m map[types.Name]PortConfig) []nameAndPort {
	out := make([]nameAndPort, 0, len(m))
	for name, port := range m {
		out = append(out, nameAndPort{name, port})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name.String() < out[j].name.String() })
	return out
}

type nameAndPort struct {
	name types.Name
	port PortConfig
}

func orderedInterfaces(m map[types.Name]InterfaceConfig) []nameAndInterface {
	out := make([]nameAndInterface, 0, len(m))
	for name, iface := range m {
		out = append(out, nameAndInterface{name, iface})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name.String() < out[j].name.String() })
	return out
}

type nameAndInterface struct {
	name  types.Name
	iface InterfaceConfig
}

func orderedVLs(m map[types.VirtualLinkId]VirtualLinkConfig) []vlAndConfig {
	out := make([]vlAndConfig, 0, len(m))
	for vl, link := range m {
		out = append(out, vlAndConfig{vl, link})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].vl < out[j].vl })
	return out
}

type vlAndConfig struct {
	vl   types.VirtualLinkId
	link VirtualLinkConfig
}
