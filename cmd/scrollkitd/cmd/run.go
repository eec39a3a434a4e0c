package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gioverse/scrollkit/debug"
	"github.com/gioverse/scrollkit/internal/demo"
)

var (
	itemCount    int
	categories   int
	fetchLatency time.Duration
	sliceMax     int
	scrollSize   float32
	rowHeight    float32
	ticks        int
	scrollStep   float32
	removeEvery  int
	dumpState    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the pipeline through a scripted scroll/swipe simulation",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&itemCount, "item-count", 0, "override source.item_count (0 keeps config value)")
	runCmd.Flags().IntVar(&categories, "categories", -1, "override source.categories (-1 keeps config value)")
	runCmd.Flags().DurationVar(&fetchLatency, "fetch-latency", -1, "override source.fetch_latency (negative keeps config value)")
	runCmd.Flags().IntVar(&sliceMax, "slice-max", 0, "override slice.slice_max (0 keeps config value)")
	runCmd.Flags().Float32Var(&scrollSize, "scroll-size", 0, "override engine.scroll_size (0 keeps config value)")
	runCmd.Flags().Float32Var(&rowHeight, "row-height", 0, "override engine.row_height (0 keeps config value)")
	runCmd.Flags().IntVar(&ticks, "ticks", 600, "number of simulated frames to run")
	runCmd.Flags().Float32Var(&scrollStep, "scroll-step", 40, "wheel delta applied every frame")
	runCmd.Flags().IntVar(&removeEvery, "remove-every", 97, "swipe-remove the front-most row every N frames (0 disables)")
	runCmd.Flags().BoolVar(&dumpState, "dump-state", false, "dump the saved slice/engine state as JSON after the run")
}

func runRun(cmd *cobra.Command, args []string) error {
	c := Config()
	if itemCount > 0 {
		c.Source.ItemCount = itemCount
	}
	if categories >= 0 {
		c.Source.Categories = categories
	}
	if fetchLatency >= 0 {
		c.Source.FetchLatency = fetchLatency
	}
	if sliceMax > 0 {
		c.Slice.SliceMax = sliceMax
	}
	if scrollSize > 0 {
		c.Engine.ScrollSize = scrollSize
	}
	if rowHeight > 0 {
		c.Engine.RowHeight = rowHeight
	}

	h, err := demo.New(c, Log())
	if err != nil {
		return fmt.Errorf("build harness: %w", err)
	}

	numCategories := c.Source.Categories
	if numCategories < 1 {
		numCategories = 1
	}
	Log().Infof("source: %d items across %d categories, fetch latency %s",
		h.ItemCount(), numCategories, c.Source.FetchLatency)
	Log().Infof("slice: max %d, min load time %s", c.Slice.SliceMax, c.Slice.MinLoadTime)

	ctx := context.Background()
	h.Reset(ctx, h.ItemCount()/2)

	if c.Source.FetchLatency > 0 {
		demonstrateSupersession(ctx, h)
	}

	const dt = 1.0 / 60
	for i := 0; i < ticks; i++ {
		h.Scroll(scrollStep)
		h.Tick(dt)
		Profiler().Record(h.Ticks())

		if removeEvery > 0 && i > 0 && i%removeEvery == 0 {
			if h.SwipeRemove(0) {
				Log().Debugf("frame %d: swiped row at index 0", i)
			}
		}
		if removeEvery > 0 && i%(removeEvery*3) == 0 {
			h.Sweep()
		}
	}

	const saveKey = "scrollkitd-run"
	if err := h.SaveState(ctx, saveKey); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	Log().Infof("saved state under %q (relative position %.4f)", saveKey, h.Engine.RelativePosition())

	h2, err := demo.New(c, Log())
	if err != nil {
		return fmt.Errorf("build reload harness: %w", err)
	}
	ok, err := h2.LoadState(ctx, saveKey)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	Log().Infof("reload found saved state: %v, relative position %.4f", ok, h2.Engine.RelativePosition())

	if dumpState {
		debug.Dump(struct {
			Slice  any `json:"slice"`
			Engine any `json:"engine"`
		}{
			Slice:  h2.Slice.Save(h2.Engine.RelativePosition()),
			Engine: h2.Engine.Save(),
		})
	}

	return nil
}

// demonstrateSupersession fires a Reset, then immediately fires another
// Reset for a different origin before the first has had time to
// complete its artificial fetch latency. The first arrival carries an
// older generation timestamp and is dropped once it lands, which is
// only observable because fetchLatency makes the race last long enough
// to see in the log.
func demonstrateSupersession(ctx context.Context, h *demo.Harness) {
	origin := h.ItemCount() / 4
	Log().Infof("firing overlapping resets at origin %d then %d to demonstrate stale-request supersession", origin, origin*2)
	h.Slice.Reset(ctx, origin)
	h.Slice.Reset(ctx, origin*2)
	deadline := time.Now().Add(5 * time.Second)
	for h.Ctrl.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		if err := h.Slice.Poll(); err != nil {
			Log().Errorf("slice poll: %v", err)
			return
		}
	}
}
