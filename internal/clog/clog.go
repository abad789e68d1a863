// Package clog provides the leveled, switchable logging used by the stack
// and extension packages.
package clog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Provider is the logging backend contract. Only Debug, Warn, Error and
// Critical are used: the core never needs Info-level chatter, matching the
// RFC5424 subset the original stack logged at.
type Provider interface {
	Critical(format string, v ...interface{})
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Log is a leveled logger that can be globally muted, used as a value
// embedded by every package that logs (stack, extension).
type Log struct {
	provider Provider
	enabled  uint32
}

// New returns a Log backed by a zap sugared logger tagged with prefix.
// Output is enabled by default.
func New(prefix string) Log {
	return Log{
		provider: newZapProvider(prefix),
		enabled:  1,
	}
}

// SetMode enables or disables log output.
func (l *Log) SetMode(enable bool) {
	if enable {
		atomic.StoreUint32(&l.enabled, 1)
	} else {
		atomic.StoreUint32(&l.enabled, 0)
	}
}

// SetProvider replaces the logging backend, e.g. to reroute through a
// caller-owned zap.Logger or a test spy.
func (l *Log) SetProvider(p Provider) {
	if p != nil {
		l.provider = p
	}
}

func (l Log) Critical(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.enabled) == 1 {
		l.provider.Critical(format, v...)
	}
}

func (l Log) Error(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.enabled) == 1 {
		l.provider.Error(format, v...)
	}
}

func (l Log) Warn(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.enabled) == 1 {
		l.provider.Warn(format, v...)
	}
}

func (l Log) Debug(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.enabled) == 1 {
		l.provider.Debug(format, v...)
	}
}

// zapProvider adapts a *zap.SugaredLogger to Provider.
type zapProvider struct {
	sugar *zap.SugaredLogger
}

var _ Provider = (*zapProvider)(nil)

func newZapProvider(prefix string) *zapProvider {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return &zapProvider{sugar: logger.Sugar().Named(prefix)}
}

func (p *zapProvider) Critical(format string, v ...interface{}) {
	p.sugar.Errorf("[CRITICAL] "+format, v...)
}

func (p *zapProvider) Error(format string, v ...interface{}) {
	p.sugar.Errorf(format, v...)
}

func (p *zapProvider) Warn(format string, v ...interface{}) {
	p.sugar.Warnf(format, v...)
}

func (p *zapProvider) Debug(format string, v ...interface{}) {
	p.sugar.Debugf(format, v...)
}
