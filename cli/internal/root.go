package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// tokenEnv names the environment variable holding the backend bearer token
const tokenEnv = "CVFORGE_TOKEN"

// CliContext holds shared CLI context
type CliContext struct {
	Config     *Config
	ConfigPath string
	Client     *api.Client
	Logger     *slog.Logger
}

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	backend    string
	token      string
	logLevel   string
	logFile    string
	logFormat  string
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var (
		opts rootOptions
		ctx  CliContext
	)

	rootCmd := &cobra.Command{
		Use:   "cvforge",
		Short: "Turn CV text into LaTeX and PDF",
		Long: `A command line interface for the CV generation backend.

Generate LaTeX from free-form CV text, edit it with plain-language
instructions, import LinkedIn profiles and compile PDFs.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := setupLogging(opts)
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			ctx.Logger = logger.WithCommand(log, cmd.CommandPath())
			ctx.Logger.Debug("CLI started")

			ctx.ConfigPath = opts.configPath
			if ctx.ConfigPath == "" {
				if ctx.ConfigPath, err = GetConfigPath(); err != nil {
					return err
				}
			}
			if ctx.Config, err = LoadConfig(ctx.ConfigPath); err != nil {
				return err
			}

			// Config commands work without a reachable backend
			if !isConfigCommand(cmd) {
				if ctx.Client, err = newAPIClient(ctx.Config, opts, ctx.Logger); err != nil {
					return err
				}
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
	}

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newTemplatesCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newGeneratePDFCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newEditCommand())
	rootCmd.AddCommand(newImportLinkedInCommand())
	rootCmd.AddCommand(newHealthCommand())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Config file (default is cvforge/config.yaml in the user config directory)")
	flags.StringVar(&opts.backend, "backend", "",
		"Backend API root, e.g. http://localhost:8000/api (overrides the current context)")
	flags.StringVar(&opts.token, "token", os.Getenv(tokenEnv),
		"Bearer token for the backend (env "+tokenEnv+")")
	flags.StringVar(&opts.logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	flags.StringVar(&opts.logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

// setupLogging configures the global logger based on CLI flags
func setupLogging(opts rootOptions) (*slog.Logger, error) {
	cfg := logger.Config{
		Level:       logger.ParseLevel(opts.logLevel),
		LogFile:     opts.logFile,
		LogToStderr: opts.logFile == "",
		Format:      opts.logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(globalLogger)
	return logger.WithComponent(globalLogger, "cli"), nil
}

// newAPIClient builds a client for the current context, honouring the --backend and --token flags
func newAPIClient(config *Config, opts rootOptions, log *slog.Logger) (*api.Client, error) {
	current, err := config.GetCurrentContext()
	if err != nil {
		return nil, err
	}

	target := *current
	if opts.backend != "" {
		target.Backend.URL = opts.backend
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	timeout, _ := target.Timeout()

	log.Debug("using backend",
		slog.String("context", config.CurrentContext),
		slog.String("url", target.Backend.URL),
		slog.Bool("authenticated", opts.token != ""))

	return api.New(target.Backend.URL,
		api.WithTimeout(timeout),
		api.WithLogger(log),
		api.WithTokens(api.StaticToken(opts.token)),
	), nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}

// apiError adds a hint to backend failures the user can act on
func apiError(action string, err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%s: %w\nPlease pass --token or set %s", action, err, tokenEnv)
	}
	return fmt.Errorf("%s: %w", action, err)
}
