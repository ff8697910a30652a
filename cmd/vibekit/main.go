// Command vibekit manages Docker-backed sandbox containers for coding
// agents: authentication against the token-refresh state machine in
// internal/oauth, and local sandbox lifecycle (create/list/delete/run)
// backed by internal/sandbox. Generalizes the teacher's cmd/sand.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/google/uuid"
	kongcompletion "github.com/jotaen/kong-completion"

	"github.com/toolprint/vibekit/internal/errkind"
	"github.com/toolprint/vibekit/internal/telemetry"
)

// CLI is the Kong root command, matching the teacher's CLI struct shape
// (global flags + one field per subcommand family).
type CLI struct {
	LogFile  string `default:"" placeholder:"<log-file-path>" help:"location of the log file (leave empty for vibekit.log under the app directory)"`
	LogLevel string `default:"info" placeholder:"<debug|info|warn|error>" help:"logging level"`
	BaseDir  string `default:"" placeholder:"<dir>" help:"application state directory; defaults to $HOME/.vibekit"`

	Auth  AuthCmd  `cmd:"" help:"manage OAuth credentials for a provider"`
	Local LocalCmd `cmd:"" help:"manage local sandbox containers"`
}

const description = `Manage Docker-backed sandbox containers for coding agents.`

func appBaseDir(override string) (string, error) {
	if override != "" {
		if err := os.MkdirAll(override, 0o755); err != nil {
			return "", fmt.Errorf("vibekit: creating base dir %s: %w", override, err)
		}
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("vibekit: resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".vibekit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("vibekit: creating base dir %s: %w", dir, err)
	}
	return dir, nil
}

func main() {
	var cli CLI
	parser := kong.Must(&cli,
		kong.Name("vibekit"),
		kong.Description(description),
		kong.Configuration(kongyaml.Loader, filepath.Join(homeOrEmpty(), ".vibekit.yaml")),
		kong.UsageOnError(),
	)
	kongcompletion.Register(parser)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	base, err := appBaseDir(cli.BaseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logFile := cli.LogFile
	if logFile == "" {
		logFile = filepath.Join(base, "vibekit.log")
	}
	initSlog(logFile, cli.LogLevel)

	correlationID := uuid.NewString()
	slog.Info("vibekit: starting", "command", kctx.Command(), "correlation_id", correlationID)

	shutdownTelemetry, err := telemetry.Init(context.Background(), "vibekit")
	if err != nil {
		slog.Warn("vibekit: telemetry init failed, continuing without tracing", "error", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("vibekit: telemetry shutdown failed", "error", err)
		}
	}()

	appCtx, err := newContext(base, correlationID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runErr := kctx.Run(appCtx)
	code := errkind.ExitCode(runErr)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
	}
	if code == 2 {
		_ = kctx.PrintUsage(false)
	}
	os.Exit(code)
}

func homeOrEmpty() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
