// Package extension implements the third-party extension hook registry:
// named CMDU-extension groups (process/send non-standard TLVs embedded in
// Vendor Specific TLVs) and named data-model-extension groups (obtain/
// update/dump non-standard local info), per al_extension.h/.c.
//
// Registration is idempotent by name: registering the same group name
// twice replaces its callbacks rather than appending a duplicate entry,
// so a package's init() can register unconditionally.
package extension

import (
	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/internal/clog"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// CMDUProcessFunc consumes the non-standard TLVs (Vendor Specific TLVs
// whose OUI the group owns) found in an inbound CMDU, sent by senderALMac,
// updating model as needed.
type CMDUProcessFunc func(m *datamodel.Model, senderALMac wire.MAC, c *cmdu.CMDU) error

// CMDUSendFunc appends the group's non-standard TLVs to an outbound
// CMDU's TLV list, each wrapped in a tlv.VendorSpecific envelope.
type CMDUSendFunc func(m *datamodel.Model, c *cmdu.CMDU) error

// LocalInfoObtainFunc returns the group's current local (non-standard)
// info as a set of already-OUI-wrapped Vendor Specific TLVs.
type LocalInfoObtainFunc func(m *datamodel.Model) ([]tlv.VendorSpecific, error)

// LocalInfoUpdateFunc merges the TLVs obtained by LocalInfoObtainFunc
// into the data model's extension slot for alMac.
type LocalInfoUpdateFunc func(m *datamodel.Model, alMac wire.MAC, extensions []tlv.VendorSpecific) error

type cmduGroup struct {
	name    string
	process CMDUProcessFunc
	send    CMDUSendFunc
}

type dataModelGroup struct {
	name   string
	obtain LocalInfoObtainFunc
	update LocalInfoUpdateFunc
}

// Registry holds the registered CMDU-extension and data-model-extension
// groups. The zero value is ready to use; a Stack owns one Registry
// instance rather than relying on package-level state.
type Registry struct {
	cmduGroups      []cmduGroup
	dataModelGroups []dataModelGroup
	Log             clog.Log
}

// NewRegistry returns an empty Registry with logging enabled under the
// "extension" tag.
func NewRegistry() *Registry {
	return &Registry{Log: clog.New("extension")}
}

// RegisterCMDUExtension adds (or replaces, if name is already registered)
// a CMDU-extension group.
func (r *Registry) RegisterCMDUExtension(name string, process CMDUProcessFunc, send CMDUSendFunc) {
	for i := range r.cmduGroups {
		if r.cmduGroups[i].name == name {
			r.Log.Debug("replacing already-registered cmdu extension group %q", name)
			r.cmduGroups[i].process = process
			r.cmduGroups[i].send = send
			return
		}
	}
	r.cmduGroups = append(r.cmduGroups, cmduGroup{name: name, process: process, send: send})
}

// RegisterDataModelExtension adds (or replaces) a data-model-extension
// group.
func (r *Registry) RegisterDataModelExtension(name string, obtain LocalInfoObtainFunc, update LocalInfoUpdateFunc) {
	for i := range r.dataModelGroups {
		if r.dataModelGroups[i].name == name {
			r.dataModelGroups[i].obtain = obtain
			r.dataModelGroups[i].update = update
			return
		}
	}
	r.dataModelGroups = append(r.dataModelGroups, dataModelGroup{name: name, obtain: obtain, update: update})
}

// ProcessCMDUExtensions runs every registered group's process callback
// over an inbound CMDU's TLV list. A group returning an error aborts the
// remaining groups and is returned to the caller, wrapped with the
// group's name.
func (r *Registry) ProcessCMDUExtensions(m *datamodel.Model, senderALMac wire.MAC, c *cmdu.CMDU) error {
	for _, g := range r.cmduGroups {
		if g.process == nil {
			continue
		}
		if err := g.process(m, senderALMac, c); err != nil {
			r.Log.Error("cmdu extension group %q failed processing from %s: %v", g.name, senderALMac, err)
			return &GroupError{Name: g.name, Err: err}
		}
	}
	return nil
}

// SendCMDUExtensions runs every registered group's send callback,
// appending each group's non-standard TLVs to the outbound CMDU.
func (r *Registry) SendCMDUExtensions(m *datamodel.Model, c *cmdu.CMDU) error {
	for _, g := range r.cmduGroups {
		if g.send == nil {
			continue
		}
		if err := g.send(m, c); err != nil {
			return &GroupError{Name: g.name, Err: err}
		}
	}
	return nil
}

// FreeCMDUExtensions drops every Vendor Specific TLV from c's TLV list.
// Unlike process/send, this needs no per-group callback: every extension
// TLV is a tlv.VendorSpecific, a type the core already understands.
func FreeCMDUExtensions(c *cmdu.CMDU) {
	kept := c.TLVs[:0:0]
	for _, t := range c.TLVs {
		if _, ok := t.(tlv.VendorSpecific); ok {
			continue
		}
		kept = append(kept, t)
	}
	c.TLVs = kept
}

// ObtainExtendedLocalInfo collects every registered data-model group's
// current local info into one flat slice.
func (r *Registry) ObtainExtendedLocalInfo(m *datamodel.Model) ([]tlv.VendorSpecific, error) {
	var out []tlv.VendorSpecific
	for _, g := range r.dataModelGroups {
		if g.obtain == nil {
			continue
		}
		extensions, err := g.obtain(m)
		if err != nil {
			return nil, &GroupError{Name: g.name, Err: err}
		}
		out = append(out, extensions...)
	}
	return out, nil
}

// UpdateExtendedInfo hands extensions to every registered data-model
// group's update callback; each group is responsible for picking out the
// TLVs bearing its own OUI.
func (r *Registry) UpdateExtendedInfo(m *datamodel.Model, alMac wire.MAC, extensions []tlv.VendorSpecific) error {
	for _, g := range r.dataModelGroups {
		if g.update == nil {
			continue
		}
		if err := g.update(m, alMac, extensions); err != nil {
			return &GroupError{Name: g.name, Err: err}
		}
	}
	return nil
}

// GroupError identifies which registered extension group a process/send/
// obtain/update callback failure came from.
type GroupError struct {
	Name string
	Err  error
}

func (e *GroupError) Error() string { return "extension " + e.Name + ": " + e.Err.Error() }
func (e *GroupError) Unwrap() error { return e.Err }
