// Command saasctl drives the SaaS admin API from a terminal. The session is
// persisted between invocations in the configured storage backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jrsteele09/saas-admin-client/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "saasctl: %s\n", err)
		os.Exit(1)
	}
}

// globalFlags override the environment and config file
type globalFlags struct {
	configFile string
	apiURL     string
	storage    string
	dataDir    string
	logLevel   string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags globalFlags
	flagSet := pflag.NewFlagSet("saasctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&flags.configFile, "config", "c", "", "YAML file of configuration values")
	flagSet.StringVar(&flags.apiURL, "api-url", "", "backend base URL (default $API_URL)")
	flagSet.StringVar(&flags.storage, "storage", "", "session storage: file, redis or memory (default $STORAGE_BACKEND)")
	flagSet.StringVar(&flags.dataDir, "data-dir", "", "folder for file storage (default $FOLDER)")
	flagSet.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return fmt.Errorf("no command given")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		printHelp(stderr, flagSet)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	if flags.configFile != "" {
		if err := config.LoadFile(flags.configFile); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, resolveSettings(config.New(), flags), stdout, stderr)
	if err != nil {
		return err
	}
	runErr := cmd.run(ctx, a, rest[1:])
	if err := a.close(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: saasctl [flags] <command> [command flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}
