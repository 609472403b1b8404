package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/punch"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/attendance"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/logging"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/session"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/ticker"
	punchService "github.com/hireconnect/hireconnect-backend-go/internal/service/punch"
	"github.com/urfave/cli/v3"
)

// Command is the root of the punch client:
//
//	punch --[flags] [status|in|out|break|toggle|watch|live]
func Command() *cli.Command {
	return &cli.Command{
		Name:  "punch",
		Usage: "punch in, take breaks and punch out against the HireConnect attendance service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "attendance service base URL",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("HIRECONNECT_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token",
				Sources: cli.EnvVars("HIRECONNECT_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "token-file",
				Usage:   "file holding the bearer token, read when --token is empty",
				Sources: cli.EnvVars("HIRECONNECT_TOKEN_FILE"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "show today's attendance state",
				Action: status,
			},
			{
				Name:   "in",
				Usage:  "punch in",
				Action: punchIn,
			},
			{
				Name:   "out",
				Usage:  "punch out",
				Action: punchOut,
			},
			{
				Name:  "break",
				Usage: "start or end a break",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "start a break",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "reason",
								Usage: "break reason",
								Value: "Break",
							},
						},
						Action: startBreak,
					},
					{
						Name:   "end",
						Usage:  "end the current break",
						Action: endBreak,
					},
				},
			},
			{
				Name:  "toggle",
				Usage: "run the main button action: punch in, start break or resume work",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "reason",
						Usage: "break reason when a break is started",
						Value: "Break",
					},
				},
				Action: toggle,
			},
			watchCommand(),
			liveCommand(),
		},
	}
}

func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	l := logging.New(errWriter(cmd), "punch", level)
	return logging.IntoContext(ctx, l), nil
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func newSession(cmd *cli.Command) (*session.Session, error) {
	if token := cmd.String("token"); token != "" {
		return session.New(token), nil
	}
	if path := cmd.String("token-file"); path != "" {
		return session.FromFile(path)
	}
	return nil, session.ErrNoToken
}

func newClient(cmd *cli.Command) (*attendance.Client, error) {
	sess, err := newSession(cmd)
	if err != nil {
		return nil, err
	}
	return attendance.NewClient(cmd.String("url"), sess), nil
}

// newMachine builds a machine rehydrated from the service's view of today.
func newMachine(ctx context.Context, cmd *cli.Command) (*punchService.Machine, error) {
	client, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	m := punchService.NewMachine(client, punchService.WithLogger(logging.FromContext(ctx)))
	if err := m.Resume(ctx); err != nil {
		m.Close()
		return nil, fmt.Errorf("%s: %w", m.LastError(), err)
	}
	return m, nil
}

func printStatus(w io.Writer, m *punchService.Machine) {
	s := m.Snapshot()
	fmt.Fprintf(w, "State:   %s\n", s.State())
	fmt.Fprintf(w, "Working: %s\n", ticker.Format(m.Working().Elapsed()))
	fmt.Fprintf(w, "Break:   %s\n", ticker.Format(m.Break().Elapsed()))
	if s.State() == punch.StateOnBreak && s.BreakReason != "" {
		fmt.Fprintf(w, "Reason:  %s\n", s.BreakReason)
	}
	fmt.Fprintf(w, "Next:    %s\n", m.MainLabel())
}

// runAction rehydrates, runs one action and prints the resulting state.
func runAction(ctx context.Context, cmd *cli.Command, action func(context.Context, *punchService.Machine) error) error {
	m, err := newMachine(ctx, cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	w := outWriter(cmd)
	if err := action(ctx, m); err != nil {
		if m.Shaking() {
			fmt.Fprintln(w, "!", m.LastError())
		}
		return fmt.Errorf("%s: %w", m.LastError(), err)
	}
	printStatus(w, m)
	return nil
}

func status(ctx context.Context, cmd *cli.Command) error {
	return runAction(ctx, cmd, func(context.Context, *punchService.Machine) error { return nil })
}

func punchIn(ctx context.Context, cmd *cli.Command) error {
	return runAction(ctx, cmd, func(ctx context.Context, m *punchService.Machine) error {
		return m.PunchIn(ctx)
	})
}

func punchOut(ctx context.Context, cmd *cli.Command) error {
	return runAction(ctx, cmd, func(ctx context.Context, m *punchService.Machine) error {
		return m.PunchOut(ctx)
	})
}

func startBreak(ctx context.Context, cmd *cli.Command) error {
	reason := cmd.String("reason")
	return runAction(ctx, cmd, func(ctx context.Context, m *punchService.Machine) error {
		return m.StartBreak(ctx, reason)
	})
}

func endBreak(ctx context.Context, cmd *cli.Command) error {
	return runAction(ctx, cmd, func(ctx context.Context, m *punchService.Machine) error {
		return m.EndBreak(ctx)
	})
}

func toggle(ctx context.Context, cmd *cli.Command) error {
	reason := cmd.String("reason")
	return runAction(ctx, cmd, func(ctx context.Context, m *punchService.Machine) error {
		return m.Toggle(ctx, reason)
	})
}
