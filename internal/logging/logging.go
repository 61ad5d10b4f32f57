// Package logging wraps the standard logger for the region editor server.
//
// Output goes to stderr by default because stdout carries the JSON-RPC
// protocol. Setup can redirect it to a rotating file instead. Debug lines are
// written only when debug logging is enabled, either through Setup or the
// REGION_MCP_LOG_LEVEL=debug environment variable.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLogLevel names the environment variable that enables debug logging.
const EnvLogLevel = "REGION_MCP_LOG_LEVEL"

var debugEnabled atomic.Bool

func init() {
	debugEnabled.Store(strings.EqualFold(os.Getenv(EnvLogLevel), "debug"))
}

// Setup configures the standard logger. level "debug" enables Debug output;
// any other value leaves it as the environment set it. When file is not
// empty, log lines go to a rotating file rather than stderr.
func Setup(level, file string) error {
	if strings.EqualFold(level, "debug") {
		debugEnabled.Store(true)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if file == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	})
	return nil
}

// SetDebug turns debug output on or off.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether Debug output is written.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Print calls the standard log.Print()
func Print(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
}

// Debug calls the standard log.Print() with a [DEBUG] prefix
func Debug(v ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	log.Output(2, "[DEBUG] "+fmt.Sprint(v...))
}

// Debugf calls the standard log.Printf() with a [DEBUG] prefix
func Debugf(format string, v ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
}

// Fatal calls the standard log.Fatal()
func Fatal(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf calls the standard log.Fatalf()
func Fatalf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
