package suite

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/launchdarkly/message-contract-tests/framework"
	"github.com/launchdarkly/message-contract-tests/matcher"
	"github.com/launchdarkly/message-contract-tests/metrics"
	"github.com/launchdarkly/message-contract-tests/registry"
	"github.com/launchdarkly/message-contract-tests/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

// Runner evaluates suites. Cases of a suite are evaluated concurrently, but their results are
// reported in the order the cases are declared.
type Runner struct {
	// Matchers is the matcher library for directives. If nil, the built-in library is used.
	Matchers *matcher.Library
	Metrics  *metrics.Recorder

	// Parallelism limits the number of cases evaluated at once. Zero means the number of CPUs.
	Parallelism int

	// MustFind makes it a configuration error when no content validator applies to a message,
	// instead of falling back to textual comparison.
	MustFind bool

	// Strict is the default mode for structural comparison.
	Strict bool

	// Configure, if set, is called on each suite's registry after the built-in validators
	// are registered.
	Configure func(*registry.Registry)
}

type schemaAdder interface {
	AddSchema(name, text string) error
}

type caseResult struct {
	results   []registry.Result
	contexts  []validation.Context
	err       error
	output    framework.CapturedOutput
	elapsed   time.Duration
	cancelled bool
}

// Run evaluates the suites and reports each case as a test named "<suite>/<case>".
func (r *Runner) Run(ctx context.Context, suites []*Suite, filter framework.Filter, testLogger framework.TestLogger) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		for _, s := range suites {
			s := s
			c.Run(s.Name, func(c *framework.Context) {
				r.runSuite(ctx, s, c)
			})
		}
	})
}

func (r *Runner) runSuite(ctx context.Context, s *Suite, c *framework.Context) {
	reg, err := r.newRegistry(s, c.Loggers())
	require.NoError(c, err)

	var selected []*Case
	for _, tc := range s.Cases {
		if c.Selected(tc.Name) {
			selected = append(selected, tc)
		}
	}

	queue := framework.NewSortingQueue[caseResult](len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	go func() {
		for i, tc := range selected {
			counter, tc := i+1, tc
			g.Go(func() error {
				queue.Accept(counter, r.evaluate(gctx, reg, tc))
				return nil
			})
		}
		_ = g.Wait()
		queue.Close()
	}()

	for _, tc := range s.Cases {
		tc := tc
		if !c.Selected(tc.Name) {
			c.Run(tc.Name, func(*framework.Context) {})
			continue
		}
		result, ok := <-queue.C
		if !ok {
			return
		}
		c.Run(tc.Name, func(c *framework.Context) {
			r.report(c, tc, result)
		})
	}
}

func (r *Runner) evaluate(ctx context.Context, reg *registry.Registry, tc *Case) caseResult {
	if err := ctx.Err(); err != nil {
		return caseResult{err: err, cancelled: true}
	}
	var debugLogger framework.CapturingLogger
	loggers := debugLogger.Loggers()
	testContext := &validation.TestContext{
		Matchers:  r.Matchers,
		Variables: tc.Variables,
		Loggers:   &loggers,
		Metrics:   r.Metrics,
	}
	mustFind := r.MustFind
	if tc.MustFind != nil {
		mustFind = *tc.MustFind
	}

	result := caseResult{contexts: tc.Contexts(r.Strict)}
	started := time.Now()
	result.results, result.err = reg.Validate(tc.Kind, tc.Received, tc.Control, result.contexts, testContext, mustFind)
	result.elapsed = time.Since(started)
	result.output = debugLogger.Output()
	return result
}

func (r *Runner) report(c *framework.Context, tc *Case, result caseResult) {
	if result.cancelled {
		r.Metrics.ObserveCase("skipped")
		c.SkipWithReason("run was cancelled")
	}
	defer func() {
		if c.Failed() {
			r.Metrics.ObserveCase("failed")
		} else {
			r.Metrics.ObserveCase("passed")
		}
	}()

	for _, m := range result.output {
		c.Debug("%s", m.Message)
	}
	for _, v := range result.results {
		c.Debug("validator %s: %s", v.Validator, v.Outcome)
	}
	for _, vc := range result.contexts {
		c.Debug("context %s: %s", vc.Kind(), vc.Status())
	}
	c.Debug("evaluated in %s", result.elapsed)

	err := result.err
	switch tc.Expect.Result {
	case ExpectMismatch:
		require.Error(c, err, "expected a content mismatch")
		assert.True(c, validation.IsMismatch(err), "expected a content mismatch, got: %s", err)
	case ExpectConfiguration:
		require.Error(c, err, "expected a configuration error")
		assert.True(c, validation.IsConfiguration(err), "expected a configuration error, got: %s", err)
	default:
		require.NoError(c, err)
	}
	if tc.Expect.Message != "" && err != nil {
		assert.Contains(c, err.Error(), tc.Expect.Message)
	}
}

func (r *Runner) newRegistry(s *Suite, loggers ldlog.Loggers) (*registry.Registry, error) {
	reg := registry.New(loggers)
	reg.RegisterDefaults()
	if r.Configure != nil {
		r.Configure(reg)
	}
	if len(s.Schemas) == 0 {
		return reg, nil
	}
	v, _ := reg.SchemaValidator(validation.JSONSchemaValidatorName)
	adder, ok := v.(schemaAdder)
	if !ok {
		return nil, fmt.Errorf("suite %q declares schemas but no %s validator accepts them",
			s.Name, validation.JSONSchemaValidatorName)
	}
	for _, name := range s.SchemaNames() {
		if err := adder.AddSchema(name, s.Schemas[name]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Runner) parallelism() int {
	if r.Parallelism > 0 {
		return r.Parallelism
	}
	return runtime.NumCPU()
}
