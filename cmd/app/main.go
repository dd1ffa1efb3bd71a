package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/journal"
	loxlog "lox/internal/log"
	"lox/internal/repl"
	"lox/internal/runner"
	"lox/internal/util"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	// Version is stamped at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// config file
	configFile string
	// logging
	logLevel string
	logFile  string
	// parser config
	debugAST bool
	printAST bool
	// evaluator config
	maxCallDepth int
	// journal
	journalDriver string
	journalDSN    string
	history       int
)

func init() {
	flag.CommandLine.Init("lox", flag.ContinueOnError)
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configFile, "config", "", "Path to a TOML config file (default $LOX_HOME/lox.toml)")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Write the AST of a script as JSON next to it")
	flag.BoolVar(&printAST, "print-ast", false, "Print the parenthesised AST to stderr before running")
	// evaluator config
	flag.IntVar(&maxCallDepth, "max-call-depth", 10000, "Maximum nested calls before a stack overflow error, 0 for no limit")
	// log config
	flag.StringVar(&logLevel, "log-level", "none", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
	// journal config
	flag.StringVar(&journalDriver, "journal-driver", "", "Record runs in a database: sqlite3, mysql or postgres")
	flag.StringVar(&journalDSN, "journal-dsn", "", "Data source name for the journal database")
	flag.IntVar(&history, "history", 0, "List the last N journaled runs and exit")

	flag.Usage = printUsage
}

func main() {
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		os.Exit(runner.ExitUsage)
	}
	os.Exit(run(flag.Args()))
}

func run(args []string) int {
	if version {
		printVersion()
		return runner.ExitOK
	}
	if help {
		printHelp()
		return runner.ExitOK
	}
	if len(args) > 1 {
		printUsage()
		return runner.ExitUsage
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return runner.ExitUsage
	}

	closer := loxlog.Setup(config.Log.Level, config.Log.File)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := openJournal(ctx, config.Journal)
	if j != nil {
		defer j.Close()
	}

	if history > 0 {
		return printHistory(ctx, os.Stdout, j, history)
	}

	r := runner.New(config, os.Stdout, os.Stderr)
	r.SetJournal(j)

	if len(args) == 1 {
		result, err := r.RunFile(ctx, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return runner.ExitNoInput
		}
		return result.ExitCode()
	}

	err = repl.Start(ctx, os.Stdin, os.Stdout, repl.Session{
		Runner:      r,
		Prompt:      config.Repl.Prompt,
		HistoryFile: config.Repl.HistoryFile,
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		return runner.ExitSoftware
	}
	return runner.ExitOK
}

// loadConfiguration layers the config file over the defaults and then the
// flags given on the command line over the file.
func loadConfiguration() (util.Configuration, error) {
	loxHome := os.Getenv("LOX_HOME")
	config, err := util.LoadConfig(util.ConfigPath(configFile, loxHome))
	if err != nil {
		return config, err
	}

	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit
	config.LoxHome = loxHome

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(&config, set)
	return config, nil
}

func applyFlags(config *util.Configuration, set map[string]bool) {
	if set["log-level"] {
		config.Log.Level = logLevel
	}
	if set["log-file"] {
		config.Log.File = logFile
	}
	if set["debug-ast"] {
		config.DebugJsonAST = debugAST
	}
	if set["print-ast"] {
		config.DebugTxtAST = printAST
	}
	if set["max-call-depth"] {
		config.Interpreter.MaxCallDepth = maxCallDepth
	}
	if set["journal-driver"] {
		config.Journal.Driver = journalDriver
	}
	if set["journal-dsn"] {
		config.Journal.DSN = journalDSN
	}
}

// openJournal returns nil when no driver is configured or the database is
// unreachable; scripts run either way.
func openJournal(ctx context.Context, cfg util.JournalConfig) *journal.Journal {
	if cfg.Driver == "" {
		return nil
	}
	j, err := journal.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		slog.Warn("journal disabled", slog.Any("error", err))
		return nil
	}
	return j
}

func printHistory(ctx context.Context, out io.Writer, j *journal.Journal, limit int) int {
	if j == nil {
		fmt.Fprintln(os.Stderr, "no journal configured, set -journal-driver and -journal-dsn")
		return runner.ExitUsage
	}

	runs, err := j.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return runner.ExitSoftware
	}

	now := time.Now()
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %-4s  exit %-2d  %-14s  %-10s  %s\n",
			run.ID.String()[:8],
			run.Mode,
			run.ExitCode,
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Duration.Round(time.Microsecond),
			run.Source)
		for _, d := range run.Diagnostics {
			fmt.Fprintf(out, "    %s\n", d)
		}
	}
	return runner.ExitOK
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: lox [options] [script]")
}

func printVersion() {
	fmt.Printf("lox version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: lox [options] [script]

Options:
  -config <path>          Load settings from a TOML file. Default is $LOX_HOME/lox.toml.
  -debug-ast              Write the AST of the script as JSON to <script>.ast.json.
  -print-ast              Print the parenthesised AST to stderr before running.
  -max-call-depth <n>     Maximum nested calls before a stack overflow error. Default is 10000.
  -journal-driver <name>  Record runs in a database: sqlite3, mysql or postgres.
  -journal-dsn <dsn>      Data source name for the journal database.
  -history <n>            List the last n journaled runs and exit.
  -help                   Display this help information and exit.
  -version                Display version information and exit.
  -log-level <level>      Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>        Specify a log file to write logs. Default is stderr.

Details:
With no script, lox starts an interactive prompt. Type :quit or press Ctrl-D to leave.

Exit codes:
  0   success
  64  usage error
  65  lexical or syntax error
  66  script could not be read
  70  runtime or internal error

Examples:
  lox                                  Start the interactive prompt
  lox fib.lox                          Run a script
  lox -print-ast fib.lox               Show how the script parsed, then run it
  lox -journal-driver sqlite3 -journal-dsn runs.db -history 10

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
