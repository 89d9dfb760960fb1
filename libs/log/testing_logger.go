package log

import (
	"io"
	"os"
	"sync"
	"testing"
)

var (
	// reuse the same logger across all tests
	_testingLoggerMutex = sync.Mutex{}
	_testingLogger      Logger
)

// TestingLogger returns a Logger which writes debug output to STDOUT if
// testing is being run with the verbose (-v) flag, NopLogger otherwise.
//
// Note that the call to TestingLogger() must be made inside a test (not in
// the init func) because the verbose flag is only set at the time of testing.
func TestingLogger() Logger {
	return TestingLoggerWithOutput(os.Stdout)
}

// TestingLoggerWithOutput is TestingLogger writing to w.
func TestingLoggerWithOutput(w io.Writer) Logger {
	_testingLoggerMutex.Lock()
	defer _testingLoggerMutex.Unlock()
	if _testingLogger != nil {
		return _testingLogger
	}

	if testing.Verbose() {
		logger, err := NewLogger(LogFormatPlain, LogLevelDebug, w)
		if err != nil {
			panic(err)
		}
		_testingLogger = logger
	} else {
		_testingLogger = NewNopLogger()
	}

	return _testingLogger
}
