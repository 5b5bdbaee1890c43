package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/eonc/internal/app"
	"github.com/specialistvlad/eonc/internal/config"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/eon"
)

// DefaultConfigFile is used when -config is not given and the file exists.
const DefaultConfigFile = "eonc.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

const usage = `
eonc - compiler for the EON topology language.

Usage:
  eonc [global options] <command> [options] [FILE]

Commands:
  compile FILE   Compile FILE and print the graph.
  check PATH     Compile PATH, or every .eon file under it, and report diagnostics.
  tree FILE      Print anchors, orbits and members as a tree.
  watch FILE     Recompile FILE whenever it changes.
  serve          Run the live editing server.
  publish FILE   Compile FILE and send the graph to a renderer.

Global options:
`

// options holds every flag value. Each command registers the subset it uses.
type options struct {
	configPath string
	logLevel   string
	logFormat  string

	format    string
	full      bool
	strict    bool
	addr      string
	origins   string
	cacheSize int
	interval  time.Duration

	url       string
	namespace string
	event     string
	timeout   time.Duration
	insecure  bool
}

type command struct {
	summary  string
	needFile bool
	register func(fs *flag.FlagSet, o *options, d app.Config)
}

var commands = map[string]command{
	app.CommandCompile: {summary: "compile FILE", needFile: true, register: func(fs *flag.FlagSet, o *options, d app.Config) {
		fs.StringVar(&o.format, "format", d.Format, "Output format. Options: 'json' or 'yaml'.")
		fs.BoolVar(&o.full, "full", false, "Include diagnostics and member placements in the output.")
	}},
	app.CommandCheck: {summary: "check PATH", needFile: true, register: func(fs *flag.FlagSet, o *options, d app.Config) {
		fs.BoolVar(&o.strict, "strict", false, "Fail when warnings are reported.")
	}},
	app.CommandTree: {summary: "tree FILE", needFile: true, register: func(*flag.FlagSet, *options, app.Config) {}},
	app.CommandWatch: {summary: "watch FILE", needFile: true, register: func(fs *flag.FlagSet, o *options, d app.Config) {
		fs.DurationVar(&o.interval, "interval", d.WatchInterval, "Polling interval.")
		registerPublishFlags(fs, o, d)
	}},
	app.CommandServe: {summary: "serve", register: func(fs *flag.FlagSet, o *options, d app.Config) {
		fs.StringVar(&o.addr, "addr", d.Addr, "Listen address of the live server.")
		fs.StringVar(&o.origins, "allowed-origins", "", "Comma-separated websocket origins. Empty allows any.")
		fs.IntVar(&o.cacheSize, "cache-size", d.CacheSize, "Number of compiled documents to cache.")
	}},
	app.CommandPublish: {summary: "publish FILE", needFile: true, register: func(fs *flag.FlagSet, o *options, d app.Config) {
		registerPublishFlags(fs, o, d)
	}},
}

func registerGlobalFlags(fs *flag.FlagSet, o *options, d app.Config) {
	fs.StringVar(&o.configPath, "config", o.configPath, "Path to an HCL settings file. Defaults to ./"+DefaultConfigFile+" when present.")
	fs.StringVar(&o.logLevel, "log-level", valueOr(o.logLevel, d.LogLevel), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&o.logFormat, "log-format", valueOr(o.logFormat, d.LogFormat), "Log output format. Options: 'text' or 'json'.")
}

func registerPublishFlags(fs *flag.FlagSet, o *options, d app.Config) {
	fs.StringVar(&o.url, "url", d.Publish.URL, "Socket.IO URL of the renderer, e.g. http://localhost:3000/socket.io/.")
	fs.StringVar(&o.namespace, "namespace", d.Publish.Namespace, "Socket.IO namespace.")
	fs.StringVar(&o.event, "event", d.Publish.Event, "Event name the graph is emitted on.")
	fs.DurationVar(&o.timeout, "timeout", d.Publish.Timeout, "Connection timeout.")
	fs.BoolVar(&o.insecure, "insecure-skip-verify", false, "Skip TLS certificate verification.")
}

func valueOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Settings are layered as defaults, then the settings file, then flags.
func Parse(ctx context.Context, args []string, output io.Writer, loader config.Loader) (*app.Config, bool, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("CLI parser started.")
	defaults := app.DefaultConfig()
	o := &options{}

	top := flag.NewFlagSet("eonc", flag.ContinueOnError)
	top.SetOutput(output)
	registerGlobalFlags(top, o, defaults)
	top.Usage = func() {
		fmt.Fprint(output, usage)
		top.PrintDefaults()
	}
	if err := top.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err)
	}
	if top.NArg() == 0 {
		logger.Debug("No command provided, printing usage and exiting.")
		top.Usage()
		return nil, true, nil
	}

	name := top.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return nil, false, usageError("unknown command %q; run 'eonc -h' for usage", name)
	}

	fs := flag.NewFlagSet("eonc "+name, flag.ContinueOnError)
	fs.SetOutput(output)
	registerGlobalFlags(fs, o, defaults)
	cmd.register(fs, o, defaults)
	fs.Usage = func() {
		fmt.Fprintf(output, "\nUsage:\n  eonc %s [options]\n\nOptions:\n", cmd.summary)
		fs.PrintDefaults()
	}
	if err := fs.Parse(top.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err)
	}
	logger.Debug("Arguments parsed successfully.", "command", name)

	set := make(map[string]bool)
	top.Visit(func(f *flag.Flag) { set[f.Name] = true })
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := defaults
	cfg.Command = name
	switch {
	case cmd.needFile && fs.NArg() != 1:
		return nil, false, usageError("%s requires exactly one FILE argument", name)
	case !cmd.needFile && fs.NArg() != 0:
		return nil, false, usageError("%s takes no arguments", name)
	case cmd.needFile:
		cfg.SourcePath = fs.Arg(0)
	}

	cfg.ConfigPath = o.configPath
	if cfg.ConfigPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfg.ConfigPath = DefaultConfigFile
		}
	}
	model, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, false, usageError("%s", err)
	}
	cfg.ApplyModel(model)
	applyFlags(&cfg, o, set)
	logger.Debug("Settings layered.", "config_path", cfg.ConfigPath, "flags_set", len(set))

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%s", err)
	}
	logger.Debug("CLI parser finished successfully.", "config", validated)
	return validated, false, nil
}

// applyFlags overlays the flags given on the command line.
func applyFlags(cfg *app.Config, o *options, set map[string]bool) {
	if set["log-level"] {
		cfg.LogLevel = strings.ToLower(o.logLevel)
	}
	if set["log-format"] {
		cfg.LogFormat = strings.ToLower(o.logFormat)
	}
	if set["format"] {
		cfg.Format = strings.ToLower(o.format)
	}
	cfg.Full = o.full
	cfg.Strict = o.strict
	if set["addr"] {
		cfg.Addr = o.addr
	}
	if set["allowed-origins"] {
		cfg.AllowedOrigins = splitList(o.origins)
	}
	if set["cache-size"] {
		cfg.CacheSize = o.cacheSize
	}
	if set["interval"] {
		cfg.WatchInterval = o.interval
	}
	if set["url"] {
		cfg.Publish.URL = o.url
	}
	if set["namespace"] {
		cfg.Publish.Namespace = o.namespace
	}
	if set["event"] {
		cfg.Publish.Event = o.event
	}
	if set["timeout"] {
		cfg.Publish.Timeout = o.timeout
	}
	if set["insecure-skip-verify"] {
		cfg.Publish.InsecureSkipVerify = o.insecure
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Run parses args and runs the selected command. Compile failures become an
// ExitError with code 1 whose message leads with eon.UserMessage.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, loader config.Loader, opts ...app.Option) error {
	cfg, shouldExit, err := Parse(ctx, args, stdout, loader)
	if err != nil || shouldExit {
		return err
	}

	a, err := app.NewApp(stdout, stderr, cfg, opts...)
	if err != nil {
		return err
	}
	err = a.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eon.ErrSyntax):
		return &ExitError{Code: 1, Message: eon.UserMessage + "\n" + err.Error()}
	case errors.Is(err, app.ErrStrict):
		return &ExitError{Code: 1, Message: err.Error()}
	default:
		return err
	}
}
