package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the test framework. It is satisfied
// by *log.Logger, and also by ldlog.BaseLogger implementations.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}
func (n nullLogger) Println(values ...interface{})             {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

// Println makes CapturingLogger usable as an ldlog.BaseLogger.
func (l *CapturingLogger) Println(values ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: strings.TrimSuffix(fmt.Sprintln(values...), "\n")})
	l.lock.Unlock()
}

// Loggers returns leveled loggers that write to this logger, with all levels enabled.
func (l *CapturingLogger) Loggers() ldlog.Loggers {
	var loggers ldlog.Loggers
	loggers.SetBaseLogger(l)
	loggers.SetMinLevel(ldlog.Debug)
	return loggers
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Contains returns true if any captured message contains the given text.
func (output CapturedOutput) Contains(text string) bool {
	for _, m := range output {
		if strings.Contains(m.Message, text) {
			return true
		}
	}
	return false
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
