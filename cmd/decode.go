package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/bnema/screenctl/internal/base128"
	"github.com/bnema/screenctl/internal/controller"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/logger"
	"github.com/bnema/screenctl/internal/message"
	"github.com/spf13/cobra"
)

var (
	decodeEvents bool
	decodeStepMs int64
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file|->",
	Short: "Decode a captured control stream",
	Long: `Decode a captured control stream and print one line per frame.
With --events, mouse frames are also run through the gesture synthesizer and the
resulting motion events are printed. Decoding stops at the first fatal error.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVarP(&decodeEvents, "events", "e", false, "Print synthesized motion events")
	decodeCmd.Flags().Int64Var(&decodeStepMs, "step", 16, "Milliseconds between frames on the synthetic clock")

	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	var src io.ReadCloser
	if args[0] == "-" {
		src = io.NopCloser(cmd.InOrStdin())
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		src = f
	}

	stream := base128.NewStream(src, base128.DefaultBufferSize)
	defer stream.Close()

	n, err := decodeStream(base128.NewInputStream(stream), cmd.OutOrStdout(), decodeEvents, decodeStepMs)
	logger.Debugf("decoded %d frame(s)", n)
	return err
}

// decodeStream prints every frame of in to out. It returns the number of frames
// decoded and nil on a clean end of stream.
func decodeStream(in *base128.InputStream, out io.Writer, events bool, stepMs int64) (int, error) {
	clock := &stepClock{step: stepMs}
	synth := controller.NewSynthesizer(clock, &printInjector{out: out}, logger.Logger)

	n := 0
	for {
		msg, err := message.Decode(in)
		if err != nil && !base128.IsFatal(err) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}

		fmt.Fprintf(out, "%d\t%s\n", n, msg)
		n++
		clock.now += clock.step

		if mouse, ok := msg.(message.MouseEvent); ok && events {
			synth.ProcessMouseEvent(mouse)
		}
	}
}

// stepClock advances a fixed amount per frame
type stepClock struct {
	now  int64
	step int64
}

func (c *stepClock) UptimeMillis() int64 {
	return c.now
}

// printInjector writes events instead of injecting them
type printInjector struct {
	out io.Writer
}

func (p *printInjector) Inject(event input.MotionEvent) error {
	_, err := fmt.Fprintf(p.out, "\t-> %s\n", event)
	return err
}

func (p *printInjector) Close() error { return nil }
