package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/launchdarkly/message-contract-tests/framework"
	"github.com/launchdarkly/message-contract-tests/metrics"
	"github.com/launchdarkly/message-contract-tests/suite"

	"github.com/fatih/color"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}
	if params.noColor {
		color.NoColor = true
	}

	mainLoggers := ldlog.NewDefaultLoggers()
	if params.debugAll {
		mainLoggers.SetMinLevel(ldlog.Debug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &suite.Runner{
		Metrics:     metrics.NewRecorder(),
		Parallelism: params.parallel,
		MustFind:    params.mustFind,
		Strict:      params.strict,
	}

	ok := runSuites(ctx, &params, runner)
	if !params.watch {
		if !ok {
			os.Exit(1)
		}
		return
	}

	fmt.Println()
	fmt.Println("Watching suite files for changes, press Ctrl-C to stop")
	err := suite.Watch(ctx, params.suites, suite.DefaultDebounce, mainLoggers, func() {
		runSuites(ctx, &params, runner)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %s\n", err)
		os.Exit(1)
	}
}

func runSuites(ctx context.Context, params *commandParams, runner *suite.Runner) bool {
	suites, err := suite.LoadFiles(params.suites)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid suite: %s\n", err)
		return false
	}

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := runner.Run(ctx, suites, params.filters.AsFilter, testLogger)

	fmt.Println()
	printResults(results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests:")
		fmt.Printf("  %s\n", params.rerunCommand(os.Args[0], results.Failures))
	}

	if params.metricsFile != "" {
		if err := runner.Metrics.WriteFile(params.metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to write metrics: %s\n", err)
			return false
		}
	}
	return results.OK()
}
