// Package cli implements the foodlens command line: capture-side of the
// mobile flow, rendered in a terminal.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/foodlens/internal/client"
	"github.com/example/foodlens/internal/discovery"
	"github.com/example/foodlens/internal/hoststore"
	"github.com/example/foodlens/internal/logging"
	"github.com/example/foodlens/internal/version"
)

const defaultStoreFile = "foodlens.db"

// Run dispatches the subcommands and returns the process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printHelp()
		return 2
	}

	switch args[0] {
	case "analyze":
		return runAnalyze(args[1:])
	case "discover":
		return runDiscover(args[1:])
	case "probe":
		return runProbe(args[1:])
	case "host":
		return runHost(args[1:])
	case "recent":
		return runRecent(args[1:])
	case "version":
		fmt.Printf("foodlens %s (commit=%s build_date=%s)\n", version.Version, version.Commit, version.BuildDate)
		return 0
	case "help", "-h", "--help":
		printHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printHelp()
		return 2
	}
}

func printHelp() {
	fmt.Print(`foodlens

Usage:
  foodlens analyze <image> [flags]
  foodlens discover [flags]
  foodlens probe    [flags]
  foodlens host [address] [-clear] [flags]
  foodlens recent   [flags]
  foodlens version

Commands:
  analyze   Upload a food photo and print its nutritional breakdown
  discover  Find the analysis backend on the local network
  probe     Check whether the backend is reachable right now
  host      Show, set, or clear the remembered backend address
  recent    List the backend's most recent analyses

Examples:
  foodlens analyze lunch.jpg
  foodlens analyze lunch.jpg -json
  foodlens host 192.168.1.42
  foodlens host -clear
`)
}

type commonFlags struct {
	LogLevel string
	Store    string
	Port     int
	Timeout  time.Duration
}

func bindCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}

	fs.StringVar(&c.LogLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	fs.StringVar(&c.Store, "store", defaultStorePath(), "Path to the settings database")
	fs.IntVar(&c.Port, "port", discovery.DefaultPort, "Backend port")
	fs.DurationVar(&c.Timeout, "timeout", 2*time.Minute, "Overall command timeout")

	return c
}

func defaultStorePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "foodlens", defaultStoreFile)
	}
	return defaultStoreFile
}

// env assembles the shared dependencies of every subcommand.
type env struct {
	logger   *zap.Logger
	store    *hoststore.Store
	resolver *discovery.Resolver
	prober   *discovery.Prober
}

func setup(c *commonFlags) (*env, error) {
	logger, err := newLogger(c.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(c.Store), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		logger.Warn("could not create settings directory", zap.Error(err))
	}
	store, err := hoststore.Open(c.Store)
	if err != nil {
		// Discovery still works without persistence.
		logger.Warn("host store unavailable, discovery will not persist", zap.Error(err))
		store = nil
	}

	resolver := discovery.NewResolver(storeOrNil(store), discovery.Config{Port: c.Port}, logger)
	return &env{
		logger:   logger,
		store:    store,
		resolver: resolver,
		prober:   discovery.NewProber(resolver, logger),
	}, nil
}

// storeOrNil avoids handing the resolver a typed nil interface.
func storeOrNil(store *hoststore.Store) discovery.Store {
	if store == nil {
		return nil
	}
	return store
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	e.logger.Sync() //nolint:errcheck
}

func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	return ctx, cancel
}

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c := bindCommon(fs)
	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "Print the raw analysis result as JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "analyze expects exactly one image path")
		return 2
	}
	imagePath := fs.Arg(0)

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read image:", err)
		return 1
	}

	e, err := setup(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer e.close()

	ctx, cancel := commandContext(c.Timeout)
	defer cancel()

	uploader := client.New(e.resolver, e.prober, e.logger)
	result, err := uploader.Analyze(ctx, imageBytes, filepath.Base(imagePath))
	if err != nil {
		fmt.Fprintln(os.Stderr, failureMessage(err))
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return 0
	}

	fmt.Print(renderResult(result))
	return 0
}

func runDiscover(args []string) int {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c := bindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	e, err := setup(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer e.close()

	ctx, cancel := commandContext(c.Timeout)
	defer cancel()

	host, err := e.resolver.Resolve(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "no backend found on the network")
		return 1
	}

	fmt.Println(host)
	return 0
}

func runProbe(args []string) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c := bindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	e, err := setup(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer e.close()

	ctx, cancel := commandContext(c.Timeout)
	defer cancel()

	if e.prober.Probe(ctx) {
		fmt.Println("reachable")
		return 0
	}
	fmt.Println("unreachable")
	return 1
}

func runHost(args []string) int {
	fs := flag.NewFlagSet("host", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c := bindCommon(fs)
	var clear bool
	fs.BoolVar(&clear, "clear", false, "Forget the remembered backend address")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	e, err := setup(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer e.close()

	ctx, cancel := commandContext(c.Timeout)
	defer cancel()

	switch {
	case clear:
		if err := e.resolver.Clear(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to clear host:", err)
			return 1
		}
		fmt.Println("host cleared")
		return 0
	case fs.NArg() == 1:
		if err := e.resolver.Set(ctx, fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, "failed to set host:", err)
			return 1
		}
		fmt.Println("host set to", fs.Arg(0))
		return 0
	case fs.NArg() == 0:
		if e.store == nil {
			fmt.Println("no host remembered")
			return 0
		}
		host, err := e.store.Load(ctx)
		if err != nil || host == "" {
			fmt.Println("no host remembered")
			return 0
		}
		fmt.Println(host)
		return 0
	default:
		fmt.Fprintln(os.Stderr, "host expects at most one address")
		return 2
	}
}

func runRecent(args []string) int {
	fs := flag.NewFlagSet("recent", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c := bindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	e, err := setup(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer e.close()

	ctx, cancel := commandContext(c.Timeout)
	defer cancel()

	uploader := client.New(e.resolver, e.prober, e.logger)
	analyses, err := uploader.Recent(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, failureMessage(err))
		return 1
	}

	if len(analyses) == 0 {
		fmt.Println("no analyses yet")
		return 0
	}
	for _, a := range analyses {
		fmt.Printf("%s  %-14s %5.1f%%  %6.0f kcal\n",
			a.CreatedAt.Local().Format("2006-01-02 15:04"), a.FoodName, a.Confidence, a.CaloriesKcal)
	}
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	return logging.NewConsoleLogger(level)
}

// failureMessage reduces any analyze failure to the one line shown to the
// user.
func failureMessage(err error) string {
	var ce *client.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
