// Package framework contains the test-run infrastructure used by the suite runner.
//
// The general model is:
//
// 1. There is a notion of a test context which is similar to Go's *testing.T, allowing pieces
// of test logic to be associated with a test identifier and to accumulate success/failure
// results. A Context can be passed to testify's assert and require functions.
//
// 2. Each test has its own debug output, which validators write to through the leveled loggers
// returned by Context.Loggers. A TestLogger decides whether that output is shown.
//
// 3. Tests can be selected or excluded by regular expressions on their full names.
//
// The code that knows what is being tested is responsible for building the tree of tests on
// top of the context.
package framework
