// Package plog is the structured, colored logger used throughout
// clcminer. Its key-value calling convention (Info(msg, "key", val, ...))
// mirrors the teacher repo's own log package as seen at every call site
// in miner/worker.go and consensus/bsrr/berith.go; its level coloring
// replaces the original Rust implementation's use of the `colored` crate
// (main.rs/submit.rs wrap every printed line in .blue()/.red()/.green()).
package plog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

// Logger is a minimal leveled, key-value logger. Unlike the full log15
// surface it is modeled on, it carries no handler chain — clcminer is a
// single-process daemon with one sink (the console), not a node that
// needs to fan log records out to files/syslog/network handlers.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
}

var std = New()

// New constructs a Logger writing to a colorable stdout, the same choice
// console/console.go makes for its REPL output so ANSI sequences render
// correctly on Windows consoles too.
func New() *Logger {
	return &Logger{out: colorable.NewColorableStdout()}
}

// Default returns the package-level logger used by components that don't
// hold their own Logger reference.
func Default() *Logger { return std }

var (
	infoColor = color.New(color.FgBlue).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	errColor  = color.New(color.FgRed).SprintFunc()
	critColor = color.New(color.FgRed, color.Bold).SprintFunc()
	okColor   = color.New(color.FgGreen).SprintFunc()
)

func (l *Logger) log(levelTag string, colorFn func(a ...interface{}) string, withCaller bool, msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	b.WriteString(colorFn(levelTag))
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %s=%v", kv[i], kv[i+1])
	}
	if withCaller {
		// 0 is this line, 1 is Error/Crit, 2 is their caller.
		c := stack.Caller(2)
		fmt.Fprintf(&b, " (%v)", c)
	}
	fmt.Fprintln(l.out, b.String())
}

// Info logs routine, expected events: new job, successful submission, etc.
func (l *Logger) Info(msg string, kv ...interface{}) { l.log("[INFO]", infoColor, false, msg, kv...) }

// Success is Info styled green, for "won/submitted/mined" lines — the
// Rust source consistently greens these (e.g. `reward.to_string().green()`).
func (l *Logger) Success(msg string, kv ...interface{}) { l.log("[INFO]", okColor, false, msg, kv...) }

// Warn logs a recoverable condition worth operator attention.
func (l *Logger) Warn(msg string, kv ...interface{}) { l.log("[WARN]", warnColor, false, msg, kv...) }

// Error logs a failed operation that does not stop the process (spec
// section 7: "no error is fatal"). Carries caller info, the same way the
// teacher's log package backs onto log15's caller capture.
func (l *Logger) Error(msg string, kv ...interface{}) { l.log("[ERROR]", errColor, true, msg, kv...) }

// Crit logs a condition severe enough to want a stack frame even though
// clcminer still never exits on it — there is no fatal error path per spec.
func (l *Logger) Crit(msg string, kv ...interface{}) { l.log("[CRIT]", critColor, true, msg, kv...) }

// Dump writes a spew dump of v under label, for inspecting live mining
// state without a debugger attached.
func (l *Logger) Dump(label string, v interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s:\n%s", infoColor("[DEBUG]"), label, spew.Sdump(v))
}

