package logger

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"pagetrack/lib/buildinfo"
)

var (
	loggerOutput         = flag.String("loggerOutput", "stderr", "Output for the logs. Supported values: stderr, stdout")
	disableTimestamps    = flag.Bool("loggerDisableTimestamps", false, "Whether to disable writing timestamps in logs")
	errorsPerSecondLimit = flag.Int("loggerErrorsPerSecondLimit", 0, "Per-second limit on the number of ERROR messages. If more than the given number of errors "+
		"are emitted per second, the remaining errors are suppressed. Zero values disable the rate limit")
	warnsPerSecondLimit = flag.Int("loggerWarnsPerSecondLimit", 0, "Per-second limit on the number of WARN messages. If more than the given number of warns "+
		"are emitted per second, the remaining warns are suppressed. Zero values disable the rate limit")
)

// Init initializes the logger.
//
// Init must be called after flag.Parse()
//
// There is no need in calling Init from tests.
func Init() {
	setLoggerJSONFields()
	setLoggerOutput()
	setLoggerLevel()
	setLoggerFormat()
	initTimezone()
	go logLimiterCleaner()
	logAllFlags()
}

func setLoggerOutput() {
	switch *loggerOutput {
	case "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		// We cannot use logger.Panicf here, since the logger isn't initialized yet.
		panic(fmt.Errorf("FATAL: unsupported `-loggerOutput` value: %q; supported values are: stderr, stdout", *loggerOutput))
	}
}

var output io.Writer = os.Stderr

// SetOutputForTests redefines the output for logger. Use ResetOutputForTest to return the output to the default value.
func SetOutputForTests(writer io.Writer) {
	output = writer
}

// ResetOutputForTest sets the logger output to the default value.
func ResetOutputForTest() {
	output = os.Stderr
}

var stdErrorLogger = log.New(&logWriter{}, "", 0)

// StdErrorLogger returns standard error logger.
func StdErrorLogger() *log.Logger {
	return stdErrorLogger
}

// Infof logs info message.
func Infof(format string, args ...any) {
	logLevelMessage(levelInfo, format, args)
}

// Warnf logs warn message.
func Warnf(format string, args ...any) {
	logLevelMessage(levelWarn, format, args)
}

// WarnfSkipframes logs warn message and skips the given number of frames for the caller location.
func WarnfSkipframes(skipframes int, format string, args ...any) {
	logLevelSkipframes(skipframes, levelWarn, format, args)
}

// Errorf logs error message.
func Errorf(format string, args ...any) {
	logLevelMessage(levelError, format, args)
}

// ErrorfSkipframes logs error message and skips the given number of frames for the caller location.
func ErrorfSkipframes(skipframes int, format string, args ...any) {
	logLevelSkipframes(skipframes, levelError, format, args)
}

// Fatalf logs fatal message and terminates the app.
func Fatalf(format string, args ...any) {
	logLevelMessage(levelFatal, format, args)
}

// Panicf logs panic message and panics.
func Panicf(format string, args ...any) {
	logLevelMessage(levelPanic, format, args)
}

func logLevelMessage(level logLevel, format string, args []any) {
	logLevelSkipframes(1, level, format, args)
}

func logLevelSkipframes(skipframes int, level logLevel, format string, args []any) {
	if level < minLogLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	logMessage(level, msg, 3+skipframes)
}

type logWriter struct {
}

func (lw *logWriter) Write(p []byte) (int, error) {
	logLevelSkipframes(2, levelError, "%s", []any{p})
	return len(p), nil
}

func logMessage(level logLevel, msg string, skipframes int) {
	timestamp := ""
	if !*disableTimestamps {
		timestamp = time.Now().In(timezone).Format("2006-01-02T15:04:05.000Z0700")
	}
	_, file, line, ok := runtime.Caller(skipframes)
	if !ok {
		file = "???"
		line = 0
	}
	if n := strings.Index(file, "/pagetrack/"); n >= 0 {
		// Strip /pagetrack/ prefix
		file = file[n+len("/pagetrack/"):]
	}
	location := fmt.Sprintf("%s:%d", file, line)

	// rate limit ERROR and WARN log messages with the given per-second limits.
	if level == levelError || level == levelWarn {
		limit := uint64(*errorsPerSecondLimit)
		if level == levelWarn {
			limit = uint64(*warnsPerSecondLimit)
		}
		ok, suppressMessage := limiter.needSuppress(location, limit)
		if ok {
			return
		}
		if len(suppressMessage) > 0 {
			msg = suppressMessage + msg
		}
	}

	for len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	levelLowercase := level.String()
	var logMsg string
	switch formatter {
	case formatterJson:
		if *disableTimestamps {
			logMsg = fmt.Sprintf(
				`{%q:%q,%q:%q,%q:%q}`+"\n",
				fieldLevel, levelLowercase,
				fieldCaller, location,
				fieldMsg, msg,
			)
		} else {
			logMsg = fmt.Sprintf(
				`{%q:%q,%q:%q,%q:%q,%q:%q}`+"\n",
				fieldTs, timestamp,
				fieldLevel, levelLowercase,
				fieldCaller, location,
				fieldMsg, msg,
			)
		}
	default:
		logMsg = fmt.Sprintf("%s\t%s\t%s\t%s\n", timestamp, levelLowercase, location, msg)
	}

	// Serialize writes to log.
	mu.Lock()
	fmt.Fprint(output, logMsg)
	mu.Unlock()

	counterName := fmt.Sprintf(`pagetrack_log_messages_total{app_version=%q, level=%q, location=%q}`, buildinfo.Version, levelLowercase, location)
	metrics.GetOrCreateCounter(counterName).Inc()

	switch level {
	case levelPanic:
		panic(errors.New(msg))
	case levelFatal:
		os.Exit(-1)
	}
}

var mu sync.Mutex

func logLimiterCleaner() {
	for {
		time.Sleep(time.Second)
		limiter.reset()
	}
}

var limiter = newLogLimiter()

func newLogLimiter() *logLimiter {
	return &logLimiter{
		m: make(map[string]uint64),
	}
}

type logLimiter struct {
	mu sync.Mutex
	m  map[string]uint64
}

func (ll *logLimiter) reset() {
	ll.mu.Lock()
	ll.m = make(map[string]uint64)
	ll.mu.Unlock()
}

// needSuppress checks if the number of calls for the given location exceeds the given limit.
//
// When the number of calls equals limit, a prefix for the last logged message is returned.
func (ll *logLimiter) needSuppress(location string, limit uint64) (bool, string) {
	// fast path
	var msg string
	if limit == 0 {
		return false, msg
	}
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if n, ok := ll.m[location]; ok {
		if n >= limit {
			switch n {
			// report only once
			case limit:
				msg = fmt.Sprintf("suppressing log message with rate limit=%d: ", limit)
			default:
				return true, msg
			}
		}
		ll.m[location] = n + 1
	} else {
		ll.m[location] = 1
	}
	return false, msg
}
