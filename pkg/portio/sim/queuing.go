package sim

import (
	"container/heap"
	"sync"
	"time"

	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
)

// ReceiveTimeout bounds how long a queuing receive blocks before giving
// up, per spec §4.1 ("a short implementation-defined timeout
// (<=10us)"). A send never waits: Write to a full queue fails at once.
const ReceiveTimeout = 10 * time.Microsecond

// QueuingPort is an in-process bounded mailbox simulating an ARINC 653
// queuing port: a FIFO or priority-ordered queue of at most msgCount
// messages, each at most msgSize bytes.
//
// Priority ordering uses the first byte of each message as its priority
// (higher first); this is a simulation convenience with no bearing on
// the wire format, since the real discipline is enforced by the
// hypervisor, not by message content.
type QueuingPort struct {
	mu         sync.Mutex
	notEmpty   chan struct{}
	discipline types.QueuingDiscipline
	msgCount   int
	msgSize    int
	queue      queue
}

// NewQueuingPort creates a queuing port bounded to msgCount messages of
// at most msgSize bytes each, ordered per discipline.
func NewQueuingPort(discipline types.QueuingDiscipline, msgCount, msgSize int) *QueuingPort {
	return &QueuingPort{
		notEmpty:   make(chan struct{}, 1),
		discipline: discipline,
		msgCount:   msgCount,
		msgSize:    msgSize,
	}
}

// Write enqueues buf. If the queue already holds msgCount messages,
// nothing is dropped: Write rejects buf with errTimedOut.
func (p *QueuingPort) Write(buf []byte) error {
	if len(buf) > p.msgSize {
		return portio.ErrInsufficientMessageSize
	}

	msg := append([]byte(nil), buf...)

	p.mu.Lock()
	if len(p.queue) >= p.msgCount {
		p.mu.Unlock()
		return errTimedOut
	}
	if p.discipline == types.Priority {
		heap.Push(&p.queue, msg)
	} else {
		p.queue = append(p.queue, msg)
	}
	p.mu.Unlock()

	select {
	case p.notEmpty <- struct{}{}:
	default:
	}
	return nil
}

// Read dequeues the next message into buf, blocking for at most
// ReceiveTimeout. An empty dequeued message is dropped silently per
// spec §4.1 and reported as "no data this tick".
func (p *QueuingPort) Read(buf []byte) (int, error) {
	if len(buf) < p.msgSize {
		return 0, portio.ErrInsufficientMessageSize
	}

	deadline := time.NewTimer(ReceiveTimeout)
	defer deadline.Stop()

	for {
		if msg, ok := p.pop(); ok {
			if len(msg) == 0 {
				return 0, errEmptyBody
			}
			return copy(buf, msg), nil
		}

		select {
		case <-p.notEmpty:
			continue
		case <-deadline.C:
			return 0, errTimedOut
		}
	}
}

func (p *QueuingPort) pop() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return nil, false
	}
	if p.discipline == types.Priority {
		msg := heap.Pop(&p.queue).([]byte)
		return msg, true
	}
	msg := p.queue[0]
	p.queue = p.queue[1:]
	return msg, true
}

// Input returns the RouterInput adapter for the queuing-in side.
func (p *QueuingPort) Input() portio.RouterInput {
	return queuingInput{p}
}

// Output returns the RouterOutput adapter for the queuing-out side.
func (p *QueuingPort) Output() portio.RouterOutput {
	return queuingOutput{p}
}

type queuingInput struct{ port *QueuingPort }

func (q queuingInput) Receive(vl types.VirtualLinkId, buf []byte) (types.VirtualLinkId, []byte, error) {
	n, err := q.port.Read(buf)
	if err != nil {
		return 0, nil, &portio.PortError{Kind: portio.Receive, Cause: err}
	}
	return vl, buf[:n], nil
}

type queuingOutput struct{ port *QueuingPort }

func (q queuingOutput) Send(_ types.VirtualLinkId, buf []byte) error {
	if err := q.port.Write(buf); err != nil {
		return &portio.PortError{Kind: portio.Send, Cause: err}
	}
	return nil
}

// queue implements container/heap.Interface, ordering by descending
// first byte (treated as priority). The heap is not stable: messages of
// equal priority are not guaranteed to leave in arrival order.
type queue [][]byte

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	pi, pj := priorityOf(q[i]), priorityOf(q[j])
	return pi > pj
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) {
	*q = append(*q, x.([]byte))
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	msg := old[n-1]
	*q = old[:n-1]
	return msg
}

func priorityOf(msg []byte) byte {
	if len(msg) == 0 {
		return 0
	}
	return msg[0]
}
