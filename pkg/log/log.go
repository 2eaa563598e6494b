// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/reconcile"
	"github.com/walteh/shelfwatch/pkg/transition"
)

// 🎨 Display configuration
const (
	itemIndent  = 4  // spaces to indent item entries
	nameWidth   = 30 // Base width for item name
	statusWidth = 15 // Width for status text
)

// 🎯 Logger writes refresh results for humans to the console and as
// structured events to zerolog.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	cycles  int
}

var _ reconcile.Reporter = (*Logger)(nil)

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatTransition formats one status change for display
func formatTransition(tr transition.Transition) string {
	var symbol rune
	var symbolColor color.Attribute
	switch tr.To {
	case item.StatusNone:
		symbol = '-'
		symbolColor = color.Faint
	case item.StatusExpired:
		symbol = '✗'
		symbolColor = color.FgRed
	case item.StatusExpiringSoon:
		symbol = '!'
		symbolColor = color.FgYellow
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
	}

	status := tr.To.String()
	if tr.Removed() {
		status = "removed"
	}

	name := tr.Item.Name
	if name == "" {
		name = tr.ItemID
	}

	date := ""
	if !tr.Item.ExpiryDate.IsZero() {
		date = item.FormatDate(tr.Item.ExpiryDate)
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", itemIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, name),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, status)),
		date)
}

// 📝 CycleCompleted prints the transitions and failures of one refresh.
// Quiet cycles only reach zerolog.
func (l *Logger) CycleCompleted(ctx context.Context, r reconcile.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cycles++

	if r.Err != nil {
		fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprintf("refresh (%s) failed: %v", r.Source, r.Err))
		l.zlog.Warn().Err(r.Err).Str("source", string(r.Source)).Dur("duration", r.Duration).Msg("refresh failed")
		return
	}

	l.zlog.Info().
		Str("source", string(r.Source)).
		Int("items", r.Snapshot.Len()).
		Int("transitions", len(r.Transitions)).
		Int("alerts", len(r.Accepted)).
		Int("rejected", len(r.Rejected)).
		Int("delivered", r.Delivery.Delivered).
		Int("delivery_failures", len(r.Delivery.Failed)).
		Dur("duration", r.Duration).
		Msg("refresh complete")

	if len(r.Transitions) == 0 && len(r.Rejected) == 0 && len(r.Delivery.Failed) == 0 {
		return
	}

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint("refresh"),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(string(r.Source)))

	for _, tr := range r.Transitions {
		fmt.Fprintln(l.console, formatTransition(tr))
	}
	for _, err := range r.Rejected {
		fmt.Fprintf(l.console, "%*s%s %s\n", itemIndent, "", color.New(color.FgRed).Sprint("?"), err)
	}
	for _, f := range r.Delivery.Failed {
		fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(f.Error()))
	}
}

// 📝 TriggerCoalesced records a folded trigger
func (l *Logger) TriggerCoalesced(ctx context.Context, s reconcile.Source) {
	l.zlog.Debug().Str("source", string(s)).Msg("refresh trigger coalesced")
}

// Cycles returns how many refresh results were reported.
func (l *Logger) Cycles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cycles
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("shelfwatch")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
