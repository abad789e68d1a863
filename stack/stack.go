// Package stack ties the wire/tlv/cmdu/lldp/alme codecs, the datamodel
// topology, and the extension registry together behind one explicit
// context object, favoring an explicit context parameter over
// package-level globals.
package stack

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/extension"
	"github.com/broadband-mesh/al1905/internal/clog"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// Stack is the single-threaded event-loop owner: the topology Model, the
// extension Registry, and the resolved Config. Every exported method here
// is meant to be called from one goroutine (the dispatch loop started by
// Run); Dispatch is the one thread-safe entry point for handing it
// externally-received bytes.
type Stack struct {
	Model    *datamodel.Model
	Registry *extension.Registry
	Config   Config
	Log      clog.Log

	dispatch chan func()
}

// New builds a Stack from cfg (validated in place) and an empty topology
// Model, with an empty extension Registry ready for groups like
// extension/bbf to Register themselves into.
func New(cfg Config) (*Stack, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	return &Stack{
		Model:    datamodel.New(),
		Registry: extension.NewRegistry(),
		Config:   cfg,
		Log:      clog.New("stack"),
		dispatch: make(chan func(), 64),
	}, nil
}

// Dispatch enqueues fn to run on the Stack's single event-loop goroutine,
// returning once it has been queued (not once it has run). Safe to call
// from any goroutine; this is the seam an external transport (not part of
// this module) uses to hand off received frames.
func (s *Stack) Dispatch(fn func()) {
	s.dispatch <- fn
}

// Run drives the event loop, the discovery timer, and the GC timer until
// ctx is cancelled, then returns its error (nil on clean cancellation).
// The two timers only ever communicate with the Model via Dispatch, so
// every Model mutation still happens on the single loop goroutine despite
// three concurrently-running goroutines.
func (s *Stack) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.runLoop(ctx) })
	g.Go(func() error { return s.runTicker(ctx, s.Config.DiscoveryInterval, s.runDiscovery) })
	g.Go(func() error { return s.runTicker(ctx, s.Config.GCInterval, s.runGC) })

	return g.Wait()
}

func (s *Stack) runLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.dispatch:
			fn()
		}
	}
}

func (s *Stack) runTicker(ctx context.Context, interval time.Duration, fn func()) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Dispatch(fn)
		}
	}
}

func (s *Stack) runDiscovery() {
	if s.Model.Local == nil {
		return
	}
	for _, iface := range s.Model.Local.Interfaces {
		c := cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeTopologyDiscovery}}
		if err := s.Registry.SendCMDUExtensions(s.Model, &c); err != nil {
			s.Log.Error("discovery: extension send on %s: %v", iface.Name, err)
		}
	}
}

func (s *Stack) runGC() {
	if n := s.Model.RunGarbageCollector(); n > 0 {
		s.Log.Debug("gc: removed %d stale device(s)", n)
	}
}

// HandleCMDU runs a fully reassembled inbound CMDU through the extension
// registry's process hooks, then folds its TLVs into the Model, attributing
// both to senderALMac and the local interface (localIfMAC) it was received
// on. Extensions see the CMDU before the data model is updated, per
// spec.md §5's ordering guarantee. Intended to be invoked via Dispatch by
// the (out-of-scope) transport layer.
func (s *Stack) HandleCMDU(localIfMAC, senderALMac wire.MAC, c *cmdu.CMDU) error {
	if err := s.Registry.ProcessCMDUExtensions(s.Model, senderALMac, c); err != nil {
		s.Log.Warn("process CMDU extensions from %s: %v", senderALMac, err)
		return err
	}
	s.applyCMDU(localIfMAC, senderALMac, c)
	return nil
}

// ParseOptions returns the tlv.ParseOptions derived from the Stack's
// Config, for callers forging/parsing TLVs outside the core codecs (e.g. a
// transport feeding Parse directly).
func (s *Stack) ParseOptions() tlv.ParseOptions {
	return tlv.ParseOptions{FixBrokenTLVs: s.Config.FixBrokenTLVs}
}
