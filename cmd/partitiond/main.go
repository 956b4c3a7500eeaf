// Command partitiond is a Linux host harness for the router partition
// core: it plays the role spec.md explicitly leaves to the hypervisor
// (creating named ports and network interfaces, populating the
// resource registry) and then drives partition.Runtime to completion.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arinc653/router/internal/pdump"
	"github.com/arinc653/router/pkg/config"
	"github.com/arinc653/router/pkg/logging"
	"github.com/arinc653/router/pkg/netio"
	"github.com/arinc653/router/pkg/portio/sim"
	"github.com/arinc653/router/pkg/reconfigure"
	"github.com/arinc653/router/pkg/types"
	"github.com/arinc653/router/pkg/xcmd"
	"github.com/arinc653/router/partition"
)

var cmd struct {
	ConfigPath string
}

var rootCmd = &cobra.Command{
	Use:   "partitiond",
	Short: "Host harness for the ARINC 653 router partition",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(cmd.ConfigPath)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the harness configuration file (required)")
	rootCmd.MarkFlagRequired("config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	harnessCfg, err := LoadConfig(path)
	if err != nil {
		return err
	}

	log, _, err := logging.Init(&harnessCfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	registry := reconfigure.NewRegistry(harnessCfg.Limits.MaxPorts+harnessCfg.Limits.MaxInterfaces, harnessCfg.Limits.MaxPorts+harnessCfg.Limits.MaxInterfaces)
	if err := bindResources(ctx, registry, harnessCfg, log); err != nil {
		return fmt.Errorf("failed to bind resources: %w", err)
	}
	log.Infow("cold start complete", "registry", registry.Summary())

	configBytes, err := os.ReadFile(harnessCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read runtime config blob %s: %w", harnessCfg.ConfigPath, err)
	}
	configPort := sim.NewSamplingPort(len(configBytes), 0)
	if err := configPort.Write(configBytes); err != nil {
		return fmt.Errorf("failed to stage runtime config: %w", err)
	}

	var tracer *pdump.Tracer
	if harnessCfg.PcapPath != "" {
		tracer, err = pdump.Open(harnessCfg.PcapPath)
		if err != nil {
			return fmt.Errorf("failed to open pcap capture: %w", err)
		}
		defer tracer.Close()
	}

	runtime := partition.New(
		log,
		registry,
		wallClock{start: time.Now()},
		configPort.Input(),
		harnessCfg.Limits,
		harnessCfg.MTU,
		partition.WithPollModulus(harnessCfg.PollModulus),
		partition.WithTracer(tracer),
		partition.WithIdleSleep(time.Millisecond),
	)

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return runtime.Run(ctx)
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		log.Infow("caught signal", "error", err)
		return err
	})

	if err := wg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		var interrupted xcmd.Interrupted
		if errors.As(err, &interrupted) {
			return nil
		}
		return err
	}
	return nil
}

// wallClock reports elapsed time since harness start as the
// hypervisor's "normal time" source.
type wallClock struct{ start time.Time }

func (w wallClock) Now() (time.Duration, error) {
	return time.Since(w.start), nil
}

func bindResources(ctx context.Context, registry *reconfigure.Registry, cfg *Config, log *zap.SugaredLogger) error {
	for i, spec := range cfg.Resources {
		name, err := types.NewName(spec.Name)
		if err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}

		switch spec.Kind {
		case "sampling_in":
			port := sim.NewSamplingPort(spec.MsgSize, spec.RefreshPeriod)
			if err := registry.InsertInput(name, port.Input()); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
		case "sampling_out":
			port := sim.NewSamplingPort(spec.MsgSize, 0)
			if err := registry.InsertOutput(name, port.Output()); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
		case "queuing_in":
			discipline, err := parseDiscipline(spec.Discipline)
			if err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
			port := sim.NewQueuingPort(discipline, spec.MsgCount, spec.MsgSize)
			if err := registry.InsertInput(name, port.Input()); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
		case "queuing_out":
			discipline, err := parseDiscipline(spec.Discipline)
			if err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
			port := sim.NewQueuingPort(discipline, spec.MsgCount, spec.MsgSize)
			if err := registry.InsertOutput(name, port.Output()); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
		case "udp":
			if spec.UDP == nil {
				return fmt.Errorf("resource %s: udp kind requires a udp block", spec.Name)
			}
			driver, err := netio.DialUDP(ctx, netio.UDPConfig{
				Source:      spec.UDP.Source,
				Destination: spec.UDP.Destination,
				Rate:        types.DataRate(spec.UDP.RateBitsPS),
				LinkName:    spec.UDP.LinkName,
			}, cfg.MTU, log)
			if err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
			if err := driver.SetReadBudget(10 * time.Microsecond); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
			iface := netio.New(netio.InterfaceId(i), cfg.MTU, driver, netio.DatagramFramer{})
			if err := registry.InsertInput(name, iface.Input()); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
			if err := registry.InsertOutput(name, iface.Output()); err != nil {
				return fmt.Errorf("resource %s: %w", spec.Name, err)
			}
		default:
			return fmt.Errorf("resource %s: unknown kind %q", spec.Name, spec.Kind)
		}
	}
	return nil
}

func parseDiscipline(s string) (config.QueuingDiscipline, error) {
	switch s {
	case "fifo", "":
		return config.FIFO, nil
	case "priority":
		return config.Priority, nil
	default:
		return 0, fmt.Errorf("unknown queuing discipline %q", s)
	}
}
