package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"buyloop/internal/banner"
	"buyloop/internal/cli"
	"buyloop/internal/config"
	"buyloop/internal/logging"
	"buyloop/internal/report"
	"buyloop/internal/runner"
	"buyloop/internal/storage"
	"buyloop/internal/tui"
	"buyloop/internal/tui/styles"
)

// errRunFailed marks a run that finished with a failure status. Its details
// were already printed by the reporter.
var errRunFailed = errors.New("run failed")

// app carries per-invocation dependencies so tests can swap them.
type app struct {
	out        io.Writer
	errOut     io.Writer
	newSender  func(endpoint string) runner.Sender
	historyDir func() (string, error)
	location   *time.Location
	isTerminal func() bool
	tuiOptions []tea.ProgramOption
}

func defaultApp() *app {
	return &app{
		out:        os.Stdout,
		errOut:     os.Stderr,
		newSender:  func(endpoint string) runner.Sender { return runner.NewHTTPSender(endpoint) },
		historyDir: storage.DefaultDir,
		location:   time.Local,
		isTerminal: stdioIsTerminal,
	}
}

func stdioIsTerminal() bool {
	tty := func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return tty(os.Stdin) && tty(os.Stdout)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buyloop",
		Short: "buyloop - launch trade sniper",
		Long: `
buyloop submits a pre-encoded trade payload to the launch endpoint until the
response reports "Bought" or the attempt budget runs out.

With --release-time the first request is held until freeze-end
(release + 60s) minus --start-before seconds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd)
		},
	}

	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), banner.GetString())
		_ = cmd.Usage()
	})

	config.RegisterFlags(rootCmd.Flags())

	rootCmd.AddCommand(newDummyCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return execute(defaultApp(), os.Args[1:])
}

func execute(a *app, args []string) int {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(a.errOut, styles.Fatal.Render("Fatal error:"), err)
		}
		return 1
	}
	return 0
}

func (a *app) run(cmd *cobra.Command) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}
	opts, err := config.Load(v, a.location)
	if err != nil {
		return err
	}

	if opts.TUI && !a.isTerminal() {
		return &config.Error{Key: config.KeyTUI, Err: errors.New("the dashboard needs an interactive terminal")}
	}

	log := logging.New(opts.LogLevel, a.errOut)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := report.NewRecorder()
	sender := a.newSender(opts.Run.Endpoint)

	var res runner.Result
	if opts.TUI {
		res, err = a.runTUI(ctx, opts, sender, recorder, log)
		if err != nil {
			return err
		}
		cli.NewConsole(a.out).Finished(res)
	} else {
		fmt.Fprintln(a.out, banner.GetString())
		console := cli.NewConsole(a.out)
		console.Header(opts.Run)
		r := runner.NewRunner(opts.Run, sender, runner.Reporters(console, recorder), log)
		res = r.Run(ctx)
	}

	a.persist(opts, recorder, res, log)

	if res.ExitCode() != 0 {
		return errRunFailed
	}
	return nil
}

// runTUI drives the loop behind the dashboard. The loop is held until the
// program has started, so no request goes out unless its events can be shown.
// The dashboard's quit key only cancels the loop; the program itself follows
// the signal context.
func (a *app) runTUI(ctx context.Context, opts config.Options, sender runner.Sender, recorder *report.Recorder, log zerolog.Logger) (runner.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan struct{})
	var once sync.Once
	start := func() tea.Msg {
		once.Do(func() { close(ready) })
		return nil
	}

	progOpts := append([]tea.ProgramOption{tea.WithOutput(a.out), tea.WithContext(ctx)}, a.tuiOptions...)
	p := tea.NewProgram(tui.NewModel(opts.Run, cancel, start), progOpts...)
	r := runner.NewRunner(opts.Run, sender, runner.Reporters(tui.NewReporter(p), recorder), log)

	loop := startWhenReady(ready, func() runner.Result { return r.Run(runCtx) })

	_, progErr := p.Run()
	cancel()
	res, started := loop.Wait()

	if !started {
		if progErr == nil {
			progErr = errors.New("exited early")
		}
		return runner.Result{}, fmt.Errorf("tui: run not started: %w", progErr)
	}
	if progErr != nil && !errors.Is(progErr, tea.ErrProgramKilled) && !errors.Is(progErr, tea.ErrInterrupted) {
		log.Warn().Err(progErr).Msg("dashboard stopped early")
	}
	return res, nil
}

type loopResult struct {
	res     runner.Result
	started bool
}

// pendingLoop runs a function once ready is closed, unless Wait is called
// first.
type pendingLoop struct {
	stop chan struct{}
	done chan loopResult
}

func startWhenReady(ready <-chan struct{}, fn func() runner.Result) *pendingLoop {
	l := &pendingLoop{
		stop: make(chan struct{}),
		done: make(chan loopResult, 1),
	}
	go func() {
		select {
		case <-ready:
		case <-l.stop:
			l.done <- loopResult{}
			return
		}
		l.done <- loopResult{res: fn(), started: true}
	}()
	return l
}

// Wait abandons the loop if it has not started yet, otherwise it blocks
// until the loop returns.
func (l *pendingLoop) Wait() (runner.Result, bool) {
	close(l.stop)
	r := <-l.done
	return r.res, r.started
}

// persist writes reports and history. Failures here never change the exit
// code of a run that already happened.
func (a *app) persist(opts config.Options, recorder *report.Recorder, res runner.Result, log zerolog.Logger) {
	if opts.OutPrefix != "" {
		if err := report.Write(recorder, opts.OutPrefix); err != nil {
			log.Error().Err(err).Msg("failed to write reports")
		} else {
			fmt.Fprintf(a.out, "Reports saved to %s.csv and %s_summary.json\n", opts.OutPrefix, opts.OutPrefix)
		}
	}

	if opts.NoHistory {
		return
	}
	dir, err := a.historyDir()
	if err != nil {
		log.Warn().Err(err).Msg("history disabled")
		return
	}
	store, err := storage.NewStore(dir)
	if err != nil {
		log.Warn().Err(err).Msg("history disabled")
		return
	}
	if err := store.Save(storage.NewHistoryItem(opts.Run, res, time.Now())); err != nil {
		log.Warn().Err(err).Msg("failed to save history")
	}
}
