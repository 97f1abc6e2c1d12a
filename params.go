package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/launchdarkly/message-contract-tests/framework"

	"github.com/alessio/shellescape"
)

type commandParams struct {
	suites      stringList
	filters     framework.RegexFilters
	debug       bool
	debugAll    bool
	parallel    int
	mustFind    bool
	strict      bool
	metricsFile string
	watch       bool
	noColor     bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.Var(&c.suites, "suite", "suite file or directory of suite files (may be repeated)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.IntVar(&c.parallel, "parallel", runtime.NumCPU(), "maximum number of cases evaluated at once")
	fs.BoolVar(&c.mustFind, "must-find-validator", false, "fail a case if no validator applies to its message, instead of comparing text")
	fs.BoolVar(&c.strict, "strict", false, "report fields that are not in the control message, unless a case says otherwise")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "write validation metrics in Prometheus text format to this file")
	fs.BoolVar(&c.watch, "watch", false, "run again whenever a suite file changes")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if len(c.suites) == 0 {
		fmt.Fprintln(os.Stderr, "-suite is required")
		fs.Usage()
		return false
	}
	if c.parallel < 1 {
		fmt.Fprintln(os.Stderr, "-parallel must be at least 1")
		return false
	}
	return true
}

// rerunCommand builds a command line that runs only the given failed tests with the same
// settings.
func (c *commandParams) rerunCommand(program string, failures []framework.TestResult) string {
	var cmd commandBuilder
	cmd.add(program)
	for _, s := range c.suites {
		cmd.add("-suite", s)
	}
	if c.mustFind {
		cmd.add("-must-find-validator")
	}
	if c.strict {
		cmd.add("-strict")
	}
	if c.debug || c.debugAll {
		cmd.add("-debug")
	}
	cmd.add("-run", failedTestsPattern(failures))
	return cmd.String()
}

// failedTestsPattern matches the failed tests and the groups that contain them, since a group
// that does not pass the filter is not run at all.
func failedTestsPattern(failures []framework.TestResult) string {
	names := make(map[string]bool)
	for _, f := range failures {
		for i := range f.TestID.Path {
			names[regexp.QuoteMeta(strings.Join(f.TestID.Path[:i+1], "/"))] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	return "^(" + strings.Join(sorted, "|") + ")$"
}

type stringList []string

func (s stringList) String() string {
	return strconv.Quote(strings.Join(s, ","))
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
