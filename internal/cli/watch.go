package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/logging"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/ticker"
	punchService "github.com/hireconnect/hireconnect-backend-go/internal/service/punch"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "show live working and break timers (keys: p toggle, o punch out, q quit)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reason",
				Usage: "break reason used by the toggle key",
				Value: "Break",
			},
		},
		Action: watch,
	}
}

const ctrlC = 3

func watch(ctx context.Context, cmd *cli.Command) error {
	m, err := newMachine(ctx, cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	in := cmd.Root().Reader
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		old, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to set raw terminal mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), old)
	}

	w := outWriter(cmd)
	defer fmt.Fprint(w, "\r\n")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan byte, 1)
	done := make(chan struct{})
	defer close(done)
	// A blocked read cannot be interrupted; the reader ends at EOF, on the
	// first key after done closes, or with the process.
	go readKeys(in, keys, done)

	workCh, stopWork := m.Working().Subscribe()
	defer stopWork()
	breakCh, stopBreak := m.Break().Subscribe()
	defer stopBreak()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		render(w, m)
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-workCh:
			case <-breakCh:
			case k, ok := <-keys:
				if !ok {
					keys = nil
					continue
				}
				if quit := handleKey(gCtx, m, k, cmd.String("reason")); quit {
					cancel()
					return nil
				}
			}
			render(w, m)
		}
	})
	return g.Wait()
}

func readKeys(r io.Reader, keys chan<- byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			select {
			case keys <- buf[0]:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// handleKey runs the action bound to k and reports whether watch should exit.
// Failed actions are already shown through the machine's inline error.
func handleKey(ctx context.Context, m *punchService.Machine, k byte, reason string) bool {
	l := logging.FromContext(ctx)
	var err error
	switch k {
	case 'p', 'P':
		err = m.Toggle(ctx, reason)
	case 'o', 'O':
		err = m.PunchOut(ctx)
	case 'q', 'Q', ctrlC:
		return true
	default:
		return false
	}
	if err != nil {
		l.Debug("Key action failed", "key", string(k), "error", err)
	}
	return false
}

func render(w io.Writer, m *punchService.Machine) {
	line := fmt.Sprintf("%-14s work %s  break %s  [%s]",
		m.State(),
		ticker.Format(m.Working().Elapsed()),
		ticker.Format(m.Break().Elapsed()),
		m.MainLabel(),
	)
	if msg := m.LastError(); msg != "" {
		line += "  ! " + msg
	}
	fmt.Fprintf(w, "\r\033[K%s", line)
}
