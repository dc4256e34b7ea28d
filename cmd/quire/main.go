// Quire generates examination papers for Pakistani school boards.
//
// A three-agent crew drafts the paper through an OpenAI-compatible LLM
// endpoint and the result is typeset as a PDF, right-to-left for Urdu
// and Islamiat.
//
// Commands:
//   - serve: web UI and JSON API
//   - generate: one paper from flags or an interactive prompt
//   - init: write a default config file
//   - version: print the version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/r3d91ll/quire/pkg/api"
	"github.com/r3d91ll/quire/pkg/config"
	"github.com/r3d91ll/quire/pkg/crew"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/observability"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/pipeline"
	"github.com/r3d91ll/quire/pkg/shell"
	"github.com/r3d91ll/quire/pkg/spinner"
	"github.com/r3d91ll/quire/yarn"
)

const version = "1.0.0"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, shell.ErrAborted) && !errors.Is(err, flag.ErrHelp) {
			qerrors.Display(err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "serve":
		return serve(args[1:], stdout)
	case "generate":
		return generate(args[1:], stdout)
	case "init":
		return initConfig(args[1:], stdout)
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "Quire %s\n", version)
		return nil
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quire <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Start the web UI and API")
	fmt.Fprintln(w, "  generate   Generate one paper")
	fmt.Fprintln(w, "  init       Write a default config file")
	fmt.Fprintln(w, "  version    Show version")
}

func initConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path (default: configs/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.InitConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Config initialized at: %s\n", path)
	fmt.Fprintln(stdout, "Set GEMINI_API_KEY in the environment or in .env.")
	return nil
}

// setup loads config, builds the logger and tracer, and wires the app.
// The returned cleanup flushes both.
func setup(ctx context.Context, configPath string) (*app, func(), error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	shutdownTracing, err := observability.Init(ctx, cfg.Tracing, os.Stderr, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracer shutdown failed", nil)
		}
		_ = log.Sync()
	}

	if cfg.LLM.APIKey == "" {
		log.Warn("no API key set; generation requests will be rejected", map[string]interface{}{"env": cfg.LLM.APIKeyEnv})
	}

	a, err := newApp(cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serve(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path (default: configs/config.yaml)")
	port := fs.Int("port", 0, "Override the listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	a, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if *port > 0 {
		a.cfg.Server.Port = *port
	}

	fmt.Fprintln(stdout, "╔═══════════════════════════════════════════════════════════╗")
	fmt.Fprintln(stdout, "║           Quire - Exam Paper Generator                    ║")
	fmt.Fprintln(stdout, "╚═══════════════════════════════════════════════════════════╝")
	fmt.Fprintln(stdout)
	printBackends(ctx, stdout, a)

	srv, err := api.NewServer(a.cfg, a.pipeline, a.boards, a.log)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Listening on http://%s\n", srv.Address())

	<-ctx.Done()
	fmt.Fprintln(stdout, "\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printBackends(ctx context.Context, w io.Writer, a *app) {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	fmt.Fprintln(w, "Backends:")
	for name, s := range a.backends.Status(checkCtx) {
		mark := "✗"
		if s.Available {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %-12s (%s, %s)\n", mark, name, s.Type, a.cfg.LLM.Model)
	}
	fmt.Fprintln(w)
}

func generate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path (default: configs/config.yaml)")
	subject := fs.String("subject", "", "Subject, e.g. Physics or Islamiat")
	grade := fs.String("grade", "", "Class, 5 to 12")
	boardName := fs.String("board", "", "Examination board")
	outDir := fs.String("out", ".", "Directory to write the PDF into")
	printText := fs.Bool("print", false, "Also print the generated text")
	showTranscript := fs.Bool("transcript", false, "Print each agent's output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	a, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	sel := paper.Selection{Subject: *subject, Grade: *grade, Board: *boardName}
	if sel == (paper.Selection{}) && term.IsTerminal(int(os.Stdin.Fd())) {
		if sel, err = pick(a); err != nil {
			return err
		}
	}

	req, err := a.pipeline.Builder().Build(sel)
	if err != nil {
		return err
	}

	sp := spinner.New(pipeline.Progress(req))
	sp.Start()
	out, err := a.pipeline.Run(crew.WithProgress(ctx, sp.Progress()), sel)
	if err != nil {
		sp.Fail("Paper generation failed")
		if out != nil && out.Text != "" && *printText {
			fmt.Fprintln(stdout, out.Text)
		}
		return err
	}
	sp.Success("Paper generated successfully!")

	if *showTranscript {
		writeTranscript(stdout, out)
	}
	if *printText {
		fmt.Fprintln(stdout, out.Text)
	}

	path := filepath.Join(*outDir, out.Filename())
	if err := os.WriteFile(path, out.PDF, 0o644); err != nil {
		return qerrors.IOWrap(err, qerrors.ErrIOWriteFailed, "failed to write paper").
			WithContext(qerrors.ContextPath, path)
	}
	fmt.Fprintf(stdout, "Saved %s (%d pages)\n", path, len(out.Pages))
	return nil
}

// writeTranscript prints the crew's assistant turns, if any were recorded.
func writeTranscript(w io.Writer, out *pipeline.Outcome) {
	if out.Generation == nil || out.Generation.Transcript == nil {
		fmt.Fprintln(w, "No transcript recorded.")
		return
	}
	conv := out.Generation.Transcript
	fmt.Fprintf(w, "Transcript (%d agent turns):\n\n", len(conv.MessagesByRole(yarn.RoleAssistant)))
	fmt.Fprintln(w, conv.Transcript())
	fmt.Fprintln(w)
}

func pick(a *app) (paper.Selection, error) {
	homeDir, _ := os.UserHomeDir()
	p, err := shell.New(shell.Config{HistoryFile: filepath.Join(homeDir, ".quire_history")})
	if err != nil {
		return paper.Selection{}, err
	}
	defer p.Close()
	return p.Select(a.boards.Boards())
}
