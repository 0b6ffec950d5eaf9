package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultHistoryLimit = 20

func newHistoryCmd(app *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent ticks from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			errFactory := errors.New()
			cfg := app.cfg

			if limit <= 0 {
				return errFactory.WithData(errors.ErrInvalidArgument, "--limit must be positive")
			}

			history, err := metrics.OpenHistory(cfg.Metrics.DBPath, logger.Default())
			if err != nil {
				return errFactory.Wrap(errors.ErrReadHistory, err)
			}
			defer history.Close()

			rows, err := history.Recent(limit)
			if err != nil {
				return errFactory.Wrap(errors.ErrReadHistory, err)
			}

			return writeHistory(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Number of ticks to print, newest first")

	return cmd
}

func writeHistory(w io.Writer, rows []metrics.MetricsSnapshot) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No ticks recorded")
		return err
	}

	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "TIME\tSCORE\tFPS\tFRAME MS\tDRAW CALLS\tTRIANGLES\tRESOURCES\tGPU %\t")
	for _, r := range rows {
		gpuLoad := "-"
		if r.GPU != nil {
			gpuLoad = fmt.Sprint(r.GPU.Utilization)
		}

		p.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%d\t%d\t%d\t%s\t\n",
			r.Timestamp.Format(time.DateTime),
			r.Score.Total,
			r.Frame.FPS,
			r.Frame.AvgFrameTime,
			r.Render.DrawCalls,
			r.Render.Triangles,
			r.Resources.Total(),
			gpuLoad,
		)
	}

	return tw.Flush()
}
