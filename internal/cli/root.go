// Package cli is the terminal front end of the dashboard.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/client/screen"
	"github.com/bryanwahyu/automaton-diag/internal/client/screens"
	"github.com/bryanwahyu/automaton-diag/internal/client/sheets"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
)

// Environment read by the CLI, optionally from a .env file.
const (
	EnvBaseURL = "DIAG_API_BASE_URL"
	EnvToken   = "DIAG_API_TOKEN"
)

// Screen is what the commands need from a resource screen.
type Screen interface {
	Load(ctx context.Context, page int, filters records.Filters) error
	Status() screen.Status
	Table() ([][]string, error)
	Export(ctx context.Context) (sheets.Artifact, error)
	SelectFile(f sheets.File) error
	Import(ctx context.Context) (imports.Result, error)
	Close()
}

type globals struct {
	baseURL string
	token   string
	timeout time.Duration
	verbose bool
	logger  *slog.Logger
}

// NewRootCmd builds the command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Vehicle diagnostics back-office dashboard",
		Long:          "dashctl lists, exports and imports vehicles, diagnostic scans and fault codes through the diagnostics API,\nand shows the history of past imports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.baseURL, "base-url", "", "API origin (env "+EnvBaseURL+")")
	pf.StringVar(&g.token, "token", "", "API bearer token (env "+EnvToken+")")
	pf.DurationVar(&g.timeout, "timeout", 30*time.Second, "request timeout")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newListCmd(g), newExportCmd(g), newImportCmd(g))
	return root
}

// Execute runs the CLI against stdout. Ctrl-C cancels the running request.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func (g *globals) init(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()

	if !cmd.Flags().Changed("base-url") {
		g.baseURL = os.Getenv(EnvBaseURL)
	}
	if !cmd.Flags().Changed("token") {
		g.token = os.Getenv(EnvToken)
	}
	if g.baseURL == "" {
		return fmt.Errorf("no API origin: set --base-url or %s", EnvBaseURL)
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	g.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (g *globals) open(name string) (Screen, error) {
	deps := screen.Deps{
		BaseURL: g.baseURL,
		Tokens:  client.StaticToken(g.token),
		HTTP:    &http.Client{Timeout: g.timeout},
		Logger:  g.logger,
	}
	switch name {
	case "vehicles":
		return screen.New(screens.Vehicles, deps), nil
	case "scans":
		return screen.New(screens.Scans, deps), nil
	case "fault-codes":
		return screen.New(screens.FaultCodes, deps), nil
	case "imports":
		return screen.New(screens.Imports, deps), nil
	}
	return nil, fmt.Errorf("unknown screen %q (one of %s)", name, strings.Join(screens.Names, ", "))
}

// parseFilters reads repeated key=value flags.
func parseFilters(pairs []string) (records.Filters, error) {
	out := records.Filters{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
