package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/eqsvg/eqsvg/internal/backend"
	"github.com/eqsvg/eqsvg/internal/config"
	"github.com/eqsvg/eqsvg/internal/httpserver"
	"github.com/eqsvg/eqsvg/internal/stdio"
	"github.com/eqsvg/eqsvg/internal/typeset"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses the LOG_LEVEL environment variable. Defaults to
// WarnLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

// configureLogger directs log output for the given mode. The stdio
// session owns stdout for the line protocol, so its logs go to a file
// under ~/.eqsvg/logs, falling back to discard if that fails. Other
// modes log to stderr.
func configureLogger(logger *logrus.Logger, stdioMode bool) func() {
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if !stdioMode {
		logger.SetOutput(os.Stderr)
		return func() {}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	logDir := filepath.Join(homeDir, ".eqsvg", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	file, err := os.OpenFile(filepath.Join(logDir, "eqsvg.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	logger.SetOutput(file)
	return func() { _ = file.Close() }
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(io.Discard) // reconfigured per subcommand

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := &cli.Command{
		Name:    "eqsvg",
		Usage:   "Convert equation markup (TeX, MathML, AsciiMath) to SVG",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "renderer",
				Value:   cfg.RendererPath,
				Usage:   "Path to the MathJax renderer script",
				Sources: cli.EnvVars("EQSVG_RENDERER"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "convert",
				Usage: "Convert a single equation and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Equation markup (reads stdin if omitted)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   string(typeset.DefaultFormat),
						Usage:   fmt.Sprintf("Source format (%s)", typeset.FormatNames()),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write SVG to this file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "inline",
						Usage: "Render inline rather than display (block) mode",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					configureLogger(logger, false)
					be := backend.NewMathJax(cmd.String("renderer"), logger)
					defer func() { _ = be.Close() }()

					opts := convertOptions{
						Input:  cmd.String("input"),
						Format: cmd.String("format"),
						Output: cmd.String("output"),
						Inline: cmd.Bool("inline"),
					}
					return runConvert(ctx, opts, be, os.Stdin, os.Stdout, os.Stderr)
				},
			},
			{
				Name:  "serve",
				Usage: "Run the persistent HTTP server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Value:   cfg.Port,
						Usage:   "HTTP listen port",
						Sources: cli.EnvVars("EQSVG_PORT"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					configureLogger(logger, false)
					be := backend.NewMathJax(cmd.String("renderer"), logger)
					defer func() { _ = be.Close() }()

					srv := httpserver.New(cmd.Int("port"), be, logger)
					return srv.Run(ctx)
				},
			},
			{
				Name:  "stdio",
				Usage: "Run the persistent stdio session (one JSON request per line)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "protocol",
						Value: "jsonrpc",
						Usage: "Line protocol (jsonrpc or plain)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					closeLog := configureLogger(logger, true)
					defer closeLog()

					be := backend.NewMathJax(cmd.String("renderer"), logger)
					defer func() { _ = be.Close() }()

					session := &stdio.Session{
						Backend: be,
						In:      os.Stdin,
						Out:     os.Stdout,
						Logger:  logger,
					}

					switch cmd.String("protocol") {
					case "jsonrpc":
						return session.RunJSONRPC(ctx)
					case "plain":
						return session.RunPlain(ctx)
					default:
						return fmt.Errorf("unsupported protocol: %s", cmd.String("protocol"))
					}
				},
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("eqsvg version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// convertOptions carries the convert subcommand's flags.
type convertOptions struct {
	Input  string
	Format string
	Output string
	Inline bool
}

// runConvert performs the one-shot conversion: markup from the input
// option or the input stream, SVG to a file or the output stream.
func runConvert(ctx context.Context, opts convertOptions, be typeset.Backend, in io.Reader, out, errOut io.Writer) error {
	markup := opts.Input
	if markup == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		markup = string(data)
	}
	if strings.TrimSpace(markup) == "" {
		return fmt.Errorf("no equation provided: pass --input or pipe markup on stdin")
	}

	format, err := typeset.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	req := typeset.Request{Markup: markup, Format: format, Display: !opts.Inline}
	svg, err := typeset.Convert(ctx, be, req)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(svg), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.Output, err)
		}
		fmt.Fprintln(errOut, color.GreenString("SVG written to %s", opts.Output))
		return nil
	}

	fmt.Fprint(out, svg)
	return nil
}
