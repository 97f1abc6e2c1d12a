package main

import (
	"testing"

	"github.com/launchdarkly/message-contract-tests/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParams(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"prog", "-suite", "a.yaml", "-suite", "dir", "-run", "orders", "-strict", "-parallel", "2"}))
	assert.Equal(t, stringList{"a.yaml", "dir"}, p.suites)
	assert.True(t, p.filters.MustMatch.IsDefined())
	assert.True(t, p.strict)
	assert.Equal(t, 2, p.parallel)

	var missing commandParams
	assert.False(t, missing.Read([]string{"prog", "-strict"}))
}

func TestRerunCommand(t *testing.T) {
	p := commandParams{suites: stringList{"suites/my orders.yaml"}, strict: true}
	failures := []framework.TestResult{
		{TestID: framework.TestID{Path: []string{"orders", "wrong customer"}}},
		{TestID: framework.TestID{Path: []string{"orders", "a.b"}}},
	}
	assert.Equal(t,
		`prog -suite 'suites/my orders.yaml' -strict -run '^(orders|orders/a\.b|orders/wrong customer)$'`,
		p.rerunCommand("prog", failures))

	var filters framework.RegexFilters
	require.NoError(t, filters.MustMatch.Set(failedTestsPattern(failures)))
	assert.True(t, filters.AsFilter(framework.TestID{Path: []string{"orders"}}))
	assert.True(t, filters.AsFilter(framework.TestID{Path: []string{"orders", "a.b"}}))
	assert.False(t, filters.AsFilter(framework.TestID{Path: []string{"orders", "axb"}}))
	assert.False(t, filters.AsFilter(framework.TestID{Path: []string{"orders", "order matches"}}))
}
