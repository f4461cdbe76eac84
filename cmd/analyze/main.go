package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/classifier"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/textprep"
)

const (
	EXIT_FAILURE     = 1
	EXIT_EMPTY_INPUT = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("analyze", flag.ContinueOnError)
	flags.SetOutput(stderr)
	asJSON := flags.Bool("json", false, "print the result as JSON")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: analyze [-json] [text]")
		fmt.Fprintln(stderr, "reads the text from stdin when no argument is given")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return EXIT_FAILURE
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return EXIT_FAILURE
	}
	logging.InitLoggerWithWriter(stderr, cfg.LogLevel)

	text, err := readText(flags.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return EXIT_FAILURE
	}
	// checked before loading the models so empty input costs nothing
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(stderr, "Please enter some text.")
		return EXIT_EMPTY_INPUT
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := classifier.Load(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to load predictors: %v\n", err)
		return EXIT_FAILURE
	}
	defer set.Close()

	var opts []analysis.Option
	if cfg.PreprocessEnabled {
		opts = append(opts, analysis.WithPreprocessor(textprep.Preprocess))
	}

	result, err := analysis.NewAnalyzerFromSet(set, opts...).Analyze(ctx, text)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		fmt.Fprintln(stderr, "Please enter some text.")
		return EXIT_EMPTY_INPUT
	case err != nil:
		slog.Error("[Analyze] Analysis failed", slog.String("error", err.Error()))
		return EXIT_FAILURE
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(result)
	} else {
		err = analysis.WriteReport(stdout, result)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return EXIT_FAILURE
	}
	return 0
}

func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(raw), nil
}
