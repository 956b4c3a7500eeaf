package netio

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/arinc653/router/pkg/types"
)

// UDPConfig names the UDP socket a Driver binds, and the rate metadata
// surfaced to the driver per spec §4.2/§9 (advisory only: no shaping
// is performed by this driver).
type UDPConfig struct {
	// Source is the local "host:port" the socket binds to.
	Source string
	// Destination is the peer "host:port" datagrams are sent to.
	Destination string
	// Rate is advisory metadata only; this driver never enforces it.
	Rate types.DataRate
	// LinkName, if set, is queried via netlink at bind time to confirm
	// the discovered MTU covers the interface's configured MTU.
	LinkName string
}

// UDPDriver is a Driver backed by a connected, non-blocking UDP socket.
// It is the reference binding for the datagram wire-format class: one
// UDP datagram carries exactly one framed message.
type UDPDriver struct {
	conn       *net.UDPConn
	log        *zap.SugaredLogger
	readBudget time.Duration
}

// DialUDP binds and connects a UDP socket per cfg, retrying the bind
// with bounded backoff (the address may still be held by a partition
// that just exited). If cfg.LinkName is set, the real link MTU is
// queried via netlink and logged when it is smaller than mtu plus the
// 4-byte virtual link tag, since that would silently truncate frames at
// the kernel.
func DialUDP(ctx context.Context, cfg UDPConfig, mtu int, log *zap.SugaredLogger) (*UDPDriver, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if cfg.LinkName != "" {
		if link, err := netlink.LinkByName(cfg.LinkName); err != nil {
			log.Warnw("could not query link for MTU sanity check", "link", cfg.LinkName, "error", err)
		} else if linkMTU := link.Attrs().MTU; linkMTU > 0 && linkMTU < mtu+vlTagSize {
			log.Warnw("configured MTU exceeds link MTU", "link", cfg.LinkName, "linkMTU", linkMTU, "configuredMTU", mtu)
		}
	}

	localAddr, err := net.ResolveUDPAddr("udp", cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve source %q: %w", cfg.Source, err)
	}
	remoteAddr, err := net.ResolveUDPAddr("udp", cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination %q: %w", cfg.Destination, err)
	}

	conn, err := dialWithBackoff(ctx, localAddr, remoteAddr, log)
	if err != nil {
		return nil, fmt.Errorf("dial udp interface: %w", err)
	}

	if err := tuneSocket(conn); err != nil {
		log.Warnw("could not tune udp socket buffers", "error", err)
	}

	return &UDPDriver{conn: conn, log: log}, nil
}

// dialWithBackoff retries net.DialUDP with exponential backoff, capped
// at 5s of total elapsed time: the local source address may still be
// held by a partition that just exited.
func dialWithBackoff(ctx context.Context, local, remote *net.UDPAddr, log *zap.SugaredLogger) (*net.UDPConn, error) {
	ticker := backoff.NewTicker(&backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
	})
	defer ticker.Stop()

	deadline := time.Now().Add(5 * time.Second)
	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			conn, err := net.DialUDP("udp", local, remote)
			if err == nil {
				return conn, nil
			}
			lastErr = err
			log.Warnw("failed to bind udp socket, retrying", "source", local, "error", err)
			if time.Now().After(deadline) {
				return nil, lastErr
			}
		}
	}
}

// tuneSocket raises the receive buffer so bursts arriving faster than
// the router's forward cadence don't get dropped by the kernel before
// the queuing-port equivalent receive budget (spec §4.1, <=10us) is
// even reached.
func tuneSocket(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, 1<<20)
	}); err != nil {
		return err
	}
	return sockErr
}

// Send implements Driver.
func (d *UDPDriver) Send(buf []byte) (int, error) {
	return d.conn.Write(buf)
}

// Recv implements Driver. It returns ErrWouldBlock once the read
// deadline set by SetReadBudget elapses with nothing received.
func (d *UDPDriver) Recv(buf []byte) (int, error) {
	if d.readBudget > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(d.readBudget)); err != nil {
			return 0, err
		}
	}
	n, err := d.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// SetReadBudget bounds how long each later Recv call may block, so a
// caller that never receives a frame still returns promptly (the
// receive budget the spec asks drivers to realize through socket
// tuning, here realized through a read deadline instead). Recv renews
// the deadline to budget from its own start on every call.
func (d *UDPDriver) SetReadBudget(budget time.Duration) error {
	d.readBudget = budget
	return d.conn.SetReadDeadline(time.Now().Add(budget))
}

// Close releases the underlying socket.
func (d *UDPDriver) Close() error {
	return d.conn.Close()
}
