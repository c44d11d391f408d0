// Package logsvc logs to a std logger and reports warnings and errors to Rollbar.
package logsvc

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	rberrors "github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var (
	levelNames    = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	rollbarLevels = [...]string{rollbar.DEBUG, rollbar.INFO, rollbar.WARN, rollbar.ERR, rollbar.CRIT}
)

// RollbarLogger prints every entry and reports entries of minLevel and above.
// The person travels in each report's context, so concurrent requests never mix their users.
type RollbarLogger struct {
	std      *log.Logger
	client   *rollbar.Client
	minLevel int
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "github.com/trezcool/colegio")
	client.SetStackTracer(rberrors.StackTracer)
	l := &RollbarLogger{std: std, client: client, minLevel: levelWarn}
	l.Enable(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return l
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// Flush blocks until queued reports are sent.
func (l *RollbarLogger) Flush() {
	l.client.Wait()
}

// entry is one log call. Args may be errors, maps of extras and auth.Claims (the person);
// anything else is kept as an "argN" extra.
type entry struct {
	msg    string
	err    error
	claims *auth.Claims
	extras map[string]interface{}
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extras: make(map[string]interface{})}
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
		case auth.Claims:
			if e.claims == nil { // only one person
				claims := v
				e.claims = &claims
				e.extras["rol"] = v.Role
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.extras[fmt.Sprintf("error%d", i)] = v.Error()
			}
			if apiErr, ok := errors.Cause(v).(*core.APIError); ok {
				e.extras["upstream_status"] = apiErr.Status
			}
		case map[string]interface{}:
			for k, val := range v {
				e.extras[k] = val
			}
		default:
			e.extras[fmt.Sprintf("arg%d", i)] = v
		}
	}
	return e
}

// line renders e as "LEVEL msg: err user=... k=v", extras sorted by key.
func (e entry) line(level int) string {
	var b strings.Builder
	b.WriteString(levelNames[level])
	b.WriteString(" ")
	b.WriteString(e.msg)
	if e.err != nil {
		fmt.Fprintf(&b, ": %v", e.err)
	}
	if e.claims != nil {
		fmt.Fprintf(&b, " usuario=%s", e.claims.Username)
	}
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	return b.String()
}

func (l *RollbarLogger) report(level int, e entry) {
	if level < l.minLevel {
		return
	}
	ctx := context.Background()
	if e.claims != nil {
		ctx = rollbar.NewPersonContext(ctx, &rollbar.Person{Id: e.claims.Subject, Username: e.claims.Username})
	}
	if e.err == nil {
		l.client.MessageWithExtrasAndContext(ctx, rollbarLevels[level], e.msg, e.extras)
		return
	}
	extras := make(map[string]interface{}, len(e.extras)+1)
	for k, v := range e.extras {
		extras[k] = v
	}
	extras["mensaje"] = e.msg
	l.client.ErrorWithExtrasAndContext(ctx, rollbarLevels[level], e.err, extras)
}

func (l *RollbarLogger) log(level int, msg string, args []interface{}) entry {
	e := newEntry(msg, args)
	l.report(level, e)
	l.std.Println(e.line(level))
	return e
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }

func (l *RollbarLogger) Info(msg string, args ...interface{}) { l.log(levelInfo, msg, args) }

func (l *RollbarLogger) Warn(msg string, args ...interface{}) { l.log(levelWarn, msg, args) }

func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

// Fatal reports, waits for the report to leave and exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, msg, args)
	l.Flush()
	l.std.Fatal(msg)
}
