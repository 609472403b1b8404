package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/punch"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/logging"
	"github.com/urfave/cli/v3"
)

func liveCommand() *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "poll live attendance for every employee (admin)",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "refresh interval",
				Value: 30 * time.Second,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "stop after this many refreshes, 0 polls until interrupted",
			},
		},
		Action: live,
	}
}

func live(ctx context.Context, cmd *cli.Command) error {
	l := logging.FromContext(ctx)

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	interval := cmd.Duration("interval")
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	count := cmd.Int("count")
	w := outWriter(cmd)

	tk := time.NewTicker(interval)
	defer tk.Stop()

	for refreshes := 1; ; refreshes++ {
		employees, err := client.Live(ctx)
		if err != nil {
			l.Error("Failed to fetch live attendance", "error", err)
			if count > 0 && refreshes >= int(count) {
				return err
			}
		} else {
			printLive(w, time.Now(), employees)
		}

		if count > 0 && refreshes >= int(count) {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
		}
	}
}

func printLive(w io.Writer, at time.Time, employees []punch.LiveEmployee) {
	counts := map[punch.LiveStatus]int{}
	for _, e := range employees {
		counts[e.Status]++
	}
	fmt.Fprintf(w, "Live attendance at %s  working: %d  on break: %d  not punched: %d  absent: %d\n",
		at.Format("15:04:05"),
		counts[punch.LiveWorking],
		counts[punch.LiveOnBreak],
		counts[punch.LiveNotPunched],
		counts[punch.LiveAbsent],
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPUNCH IN\tBREAK START\tHOURS\tDEPARTMENT")
	for _, e := range employees {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Name,
			e.Status,
			clock(e.PunchInTime),
			clock(e.BreakStartTime),
			hours(e.TotalHours),
			orDash(e.Department),
		)
	}
	tw.Flush()
}

func clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04:05")
}

func hours(h *float64) string {
	if h == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *h)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
