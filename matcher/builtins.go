package matcher

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"golang.org/x/text/cases"
)

var builtins = map[string]Func{
	"Ignore": func(string, []string, Scope) error { return nil },
	"StartsWith": withOneArg(func(actual, arg string) error {
		return check(m.StringHasPrefix(arg), actual)
	}),
	"EndsWith": withOneArg(func(actual, arg string) error {
		return check(m.StringHasSuffix(arg), actual)
	}),
	"Contains": withOneArg(func(actual, arg string) error {
		return check(m.StringContains(arg), actual)
	}),
	"EqualsIgnoreCase": withOneArg(func(actual, arg string) error {
		return check(foldedEqual(arg), actual)
	}),
	"ContainsIgnoreCase": withOneArg(func(actual, arg string) error {
		fold := cases.Fold()
		if strings.Contains(fold.String(actual), fold.String(arg)) {
			return nil
		}
		return fmt.Errorf("does not contain %q ignoring case", arg)
	}),
	"Matches": withOneArg(func(actual, arg string) error {
		rx, err := regexp.Compile("^(?:" + arg + ")$")
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidArguments, err)
		}
		if !rx.MatchString(actual) {
			return fmt.Errorf("does not match pattern %q", arg)
		}
		return nil
	}),
	"IsNumber": func(actual string, args []string, _ Scope) error {
		if len(args) != 0 {
			return fmt.Errorf("%w: IsNumber takes no arguments", ErrInvalidArguments)
		}
		if _, ok := new(big.Rat).SetString(strings.TrimSpace(actual)); !ok {
			return errors.New("is not a number")
		}
		return nil
	},
	"GreaterThan": numericComparison("greater than", func(c int) bool { return c > 0 }),
	"LowerThan":   numericComparison("lower than", func(c int) bool { return c < 0 }),
	"Empty": func(actual string, args []string, _ Scope) error {
		return check(m.Equal(""), actual)
	},
	"NotEmpty": func(actual string, args []string, _ Scope) error {
		return check(m.Not(m.Equal("")), actual)
	},
	"Null": func(actual string, args []string, _ Scope) error {
		return check(nullText, actual)
	},
	"NotNull": func(actual string, args []string, _ Scope) error {
		return check(m.Not(nullText), actual)
	},
	"Length": withOneArg(func(actual, arg string) error {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: Length expects an integer, got %q", ErrInvalidArguments, arg)
		}
		if got := utf8.RuneCountInString(actual); got != n {
			return fmt.Errorf("has length %d, expected %d", got, n)
		}
		return nil
	}),
	"Variable": func(actual string, args []string, scope Scope) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: Variable expects 1 argument, got %d", ErrInvalidArguments, len(args))
		}
		var expected string
		var ok bool
		if scope != nil {
			expected, ok = scope.Lookup(args[0])
		}
		if !ok {
			return &UnknownVariableError{Name: args[0]}
		}
		return check(m.Equal(expected), actual)
	},
}

func withOneArg(fn func(actual, arg string) error) Func {
	return func(actual string, args []string, _ Scope) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: expected 1 argument, got %d", ErrInvalidArguments, len(args))
		}
		return fn(actual, args[0])
	}
}

func check(matcher m.Matcher, actual string) error {
	ok, desc := matcher.Test(actual)
	if ok {
		return nil
	}
	reason, _, _ := strings.Cut(desc, "\nfull value was:")
	return errors.New(reason)
}

var nullText = m.New(
	func(value interface{}) bool { return value == "" || value == "null" },
	func() string { return "null" },
	func(value interface{}) string { return fmt.Sprintf("%q is not null", value) },
)

func foldedEqual(expected string) m.Matcher {
	fold := cases.Fold()
	want := fold.String(expected)
	return m.New(
		func(value interface{}) bool {
			s, ok := value.(string)
			return ok && fold.String(s) == want
		},
		func() string {
			return fmt.Sprintf("equal ignoring case to %q", expected)
		},
		func(value interface{}) string {
			return fmt.Sprintf("%q is not equal ignoring case to %q", value, expected)
		},
	)
}

func numericComparison(desc string, accept func(int) bool) Func {
	return withOneArg(func(actual, arg string) error {
		limit, ok := new(big.Rat).SetString(strings.TrimSpace(arg))
		if !ok {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidArguments, arg)
		}
		value, ok := new(big.Rat).SetString(strings.TrimSpace(actual))
		if !ok {
			return errors.New("is not a number")
		}
		if !accept(value.Cmp(limit)) {
			return fmt.Errorf("is not %s %s", desc, arg)
		}
		return nil
	})
}
