package xcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Interrupted wraps the signal that stopped the partition harness, so
// main can distinguish an operator-requested shutdown from a real
// failure without matching on signal.Signal directly.
type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return m.String()
}

// WaitInterrupted blocks until SIGINT or SIGTERM arrives or ctx is
// canceled, whichever comes first. The partitiond host harness runs
// this alongside partition.Runtime.Run in an errgroup so a signal
// cancels the forward loop's context instead of calling os.Exit
// mid-tick.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}
