// Command adcprobe drives the ADC, charger glue and TEC of a board from a
// host, either over the register bridge on a serial port or against a
// simulated register file.
//
//	adcprobe --sim                       interactive console on a simulated board
//	adcprobe --port /dev/ttyUSB0 adc read 3
//	adcprobe --config bench.yaml --sim watch 5
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"driverlib-go/services/bridge"
	"driverlib-go/services/config"
)

var (
	logger = log.New(os.Stderr, "[adcprobe] ", 0)

	opts = struct {
		port    string
		baud    int
		board   string
		config  string
		sim     bool
		retries int
	}{}

	rootCmd = &cobra.Command{
		Use:   "adcprobe [command...]",
		Short: "Drive a charger board's ADC and I/O glue",
		Long: "Run one console command given as arguments, or read commands from stdin.\n" +
			"Type 'help' in the console for the command list.",
		SilenceUsage: true,
		RunE:         run,
	}
)

func logf(format string, a ...any) { logger.Printf(format, a...) }

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.port, "port", "p", "", "serial device of the board's bridge link")
	f.IntVarP(&opts.baud, "baud", "b", 115200, "serial baud rate")
	f.StringVar(&opts.board, "board", "fa5510", "embedded board ID")
	f.StringVarP(&opts.config, "config", "c", "", "board file (JSON or YAML), overrides --board")
	f.BoolVar(&opts.sim, "sim", false, "use a simulated board instead of a serial link")
	f.IntVar(&opts.retries, "retries", 0, "bridge retries per access (0 = board default)")
	f.SetInterspersed(false)
}

func loadBoard() (config.Board, error) {
	if opts.config != "" {
		return config.Load(opts.config)
	}
	return config.Lookup(opts.board)
}

func open(ctx context.Context) (*target, error) {
	board, err := loadBoard()
	if err != nil {
		return nil, err
	}
	if opts.sim {
		logf("simulated %s board", board.ID)
		return newSimTarget(board)
	}
	if opts.port == "" {
		return nil, fmt.Errorf("no --port given (use --sim for a simulated board)")
	}
	if opts.retries > 0 {
		if board.Bridge == nil {
			board.Bridge = &bridge.Config{}
		}
		board.Bridge.Retries = opts.retries
	}
	return newRemoteTarget(ctx, board, bridge.TransportConfig{
		Type:   "serial",
		Serial: &bridge.SerialConfig{Port: opts.port, Baud: opts.baud, ReadTimeoutMS: 200},
	})
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := open(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	c := newConsole(t, cmd.OutOrStdout())
	if len(args) > 0 {
		return c.exec(ctx, args)
	}

	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := c.line(ctx, line); err != nil {
			logf("%v", err)
		}
	}
	return sc.Err()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
