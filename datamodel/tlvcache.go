package datamodel

import (
	"fmt"
	"io"
	"time"

	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// DeviceInfoUpdate carries the per-slot TLVs to merge into a Device
// record. A nil field leaves that slot untouched; a non-nil field
// replaces it outright, matching the "replace, don't merge" policy applied
// to every cached TLV (see also extension/bbf).
type DeviceInfoUpdate struct {
	DeviceInfo         *tlv.DeviceInformation
	BridgingCapability *tlv.DeviceBridgingCapability
	Non1905Neighbors   *tlv.Non1905NeighborDeviceList
	SupportedService   *tlv.SupportedService
	APOperationalBSS   *tlv.APOperationalBSS
	AssociatedClients  *tlv.AssociatedClients

	GenericPhy           *tlv.GenericPhyDeviceInformation
	ProfileVersion       *tlv.ProfileVersion
	DeviceIdentification *tlv.DeviceIdentification
	ControlURL           *tlv.ControlURL
	IPv4                 *tlv.IPv4
	IPv6                 *tlv.IPv6

	// NeighborDevices/PowerOffInterfaces/L2Neighbors replace the device's
	// whole list when non-nil, mirroring the single-slot replace-or-retain
	// policy applied uniformly across every cached TLV in this record.
	NeighborDevices    []tlv.NeighborDeviceList
	PowerOffInterfaces []tlv.PowerOffInterface
	L2Neighbors        []tlv.L2NeighborDevice
}

func (u DeviceInfoUpdate) empty() bool {
	return u.DeviceInfo == nil && u.BridgingCapability == nil && u.Non1905Neighbors == nil &&
		u.SupportedService == nil && u.APOperationalBSS == nil && u.AssociatedClients == nil &&
		u.GenericPhy == nil && u.ProfileVersion == nil && u.DeviceIdentification == nil &&
		u.ControlURL == nil && u.IPv4 == nil && u.IPv6 == nil &&
		u.NeighborDevices == nil && u.PowerOffInterfaces == nil && u.L2Neighbors == nil
}

// UpdateNetworkDeviceInfo merges update into the cached TLVs of the
// device identified by alMac, creating the device record if it doesn't
// exist yet. A brand new record can only be created alongside its
// mandatory device-information TLV.
func (m *Model) UpdateNetworkDeviceInfo(alMac wire.MAC, update DeviceInfoUpdate) error {
	dev, ok := m.DeviceByALMac(alMac)
	if !ok {
		if update.DeviceInfo == nil {
			return ErrMissingDeviceInfo
		}
		dev = newDevice(alMac, false, m.now())
		m.Devices = append(m.Devices, dev)
	}
	if update.DeviceInfo != nil {
		dev.DeviceInfo = update.DeviceInfo
	}
	if update.BridgingCapability != nil {
		dev.BridgingCapability = update.BridgingCapability
	}
	if update.Non1905Neighbors != nil {
		dev.Non1905Neighbors = update.Non1905Neighbors
	}
	if update.SupportedService != nil {
		dev.SupportedService = update.SupportedService
	}
	if update.APOperationalBSS != nil {
		dev.APOperationalBSS = update.APOperationalBSS
	}
	if update.AssociatedClients != nil {
		dev.AssociatedClients = update.AssociatedClients
	}
	if update.GenericPhy != nil {
		dev.GenericPhy = update.GenericPhy
	}
	if update.ProfileVersion != nil {
		dev.ProfileVersion = update.ProfileVersion
	}
	if update.DeviceIdentification != nil {
		dev.DeviceIdentification = update.DeviceIdentification
	}
	if update.ControlURL != nil {
		dev.ControlURL = update.ControlURL
	}
	if update.IPv4 != nil {
		dev.IPv4 = update.IPv4
	}
	if update.IPv6 != nil {
		dev.IPv6 = update.IPv6
	}
	if update.NeighborDevices != nil {
		dev.NeighborDevices = update.NeighborDevices
	}
	if update.PowerOffInterfaces != nil {
		dev.PowerOffInterfaces = update.PowerOffInterfaces
	}
	if update.L2Neighbors != nil {
		dev.L2Neighbors = update.L2Neighbors
	}
	if !update.empty() {
		dev.UpdateTimestamp = m.now()
	}
	return nil
}

// UpdateNetworkDeviceMetrics creates or replaces the matching metrics
// slot on an already-known device: a TransmitterLinkMetric or
// ReceiverLinkMetric TLV is keyed by its own LocalALMac (the device the
// cache entry belongs to) and NeighborALMac (the slot within it). It
// never creates a device record — a device must already have been
// introduced via UpdateNetworkDeviceInfo.
func (m *Model) UpdateNetworkDeviceMetrics(metric tlv.TLV) error {
	switch v := metric.(type) {
	case tlv.TransmitterLinkMetric:
		dev, ok := m.DeviceByALMac(v.LocalALMac)
		if !ok {
			return ErrUnknownDevice
		}
		dev.TxMetrics[v.NeighborALMac] = v
		dev.UpdateTimestamp = m.now()
		return nil
	case tlv.ReceiverLinkMetric:
		dev, ok := m.DeviceByALMac(v.LocalALMac)
		if !ok {
			return ErrUnknownDevice
		}
		dev.RxMetrics[v.NeighborALMac] = v
		dev.UpdateTimestamp = m.now()
		return nil
	default:
		return ErrUnsupportedMetricTLV
	}
}

// NetworkDeviceInfoNeedsUpdate reports whether alMac has no cached
// record yet, or its record's UpdateTimestamp is older than MaxAge.
func (m *Model) NetworkDeviceInfoNeedsUpdate(alMac wire.MAC) bool {
	dev, ok := m.DeviceByALMac(alMac)
	if !ok {
		return true
	}
	return m.now().Sub(dev.UpdateTimestamp) >= MaxAge
}

// RunGarbageCollector drops every non-local device whose UpdateTimestamp
// is older than GCMaxAge, or whose AL MAC no longer appears anywhere in
// the discovery graph (e.g. every Link to it was already removed via
// RemoveALNeighborFromInterface), along with every local-interface Link,
// every remote-interface reference, and every metric-list entry elsewhere
// in the model pointing at it. It returns the number of devices removed.
func (m *Model) RunGarbageCollector() int {
	now := m.now()
	keep := m.Devices[:0:0]
	removed := map[wire.MAC]bool{}
	for _, d := range m.Devices {
		if now.Sub(d.UpdateTimestamp) >= GCMaxAge || !m.inDiscoveryGraph(d) {
			removed[d.ALMac] = true
			continue
		}
		keep = append(keep, d)
	}
	m.Devices = keep
	if len(removed) == 0 {
		return 0
	}
	if m.Local != nil {
		for _, iface := range m.Local.Interfaces {
			links := iface.Links[:0:0]
			for _, l := range iface.Links {
				if removed[l.NeighborALMac] {
					continue
				}
				links = append(links, l)
			}
			iface.Links = links
		}
		scrubMetrics(m.Local, removed)
	}
	for _, d := range m.Devices {
		scrubMetrics(d, removed)
	}
	return len(removed)
}

// inDiscoveryGraph reports whether dev is still reachable from some local
// interface's Link list. A device that was never discovered through a
// Link (e.g. one whose record exists only because of a topology-response
// TLV with no accompanying discovery CMDU) has nothing to lose here and
// is treated as still present. A device that once had a Link but whose
// last one was stripped (e.g. via RemoveALNeighborFromInterface) is no
// longer part of the discovery graph even if its cached record is fresh.
func (m *Model) inDiscoveryGraph(dev *Device) bool {
	if len(dev.RemoteInterfaces) == 0 {
		return true
	}
	if m.Local == nil {
		return false
	}
	for _, iface := range m.Local.Interfaces {
		for _, l := range iface.Links {
			if l.NeighborALMac == dev.ALMac {
				return true
			}
		}
	}
	return false
}

// scrubMetrics deletes dev's TxMetrics/RxMetrics entries keyed by any AL
// MAC in removed, so a device's metric lists never outlive the device it
// references.
func scrubMetrics(dev *Device, removed map[wire.MAC]bool) {
	for mac := range removed {
		delete(dev.TxMetrics, mac)
		delete(dev.RxMetrics, mac)
	}
}

// RemoveALNeighborFromInterface drops every Link to neighborALMac on the
// named local interface; the neighbor Device record itself (and its
// links on other interfaces) is left untouched.
func (m *Model) RemoveALNeighborFromInterface(interfaceName string, neighborALMac wire.MAC) error {
	iface, ok := m.InterfaceByName(interfaceName)
	if !ok {
		return ErrUnknownInterface
	}
	links := iface.Links[:0:0]
	for _, l := range iface.Links {
		if l.NeighborALMac == neighborALMac {
			continue
		}
		links = append(links, l)
	}
	iface.Links = links
	return nil
}

// InterfaceNeighbors returns the AL MAC of every distinct neighbor
// discovered through the named local interface.
func (m *Model) InterfaceNeighbors(interfaceName string) []wire.MAC {
	iface, ok := m.InterfaceByName(interfaceName)
	if !ok {
		return nil
	}
	seen := map[wire.MAC]bool{}
	var out []wire.MAC
	for _, l := range iface.Links {
		if seen[l.NeighborALMac] {
			continue
		}
		seen[l.NeighborALMac] = true
		out = append(out, l.NeighborALMac)
	}
	return out
}

// AllNeighbors returns every neighbor Device currently cached.
func (m *Model) AllNeighbors() []*Device {
	out := make([]*Device, len(m.Devices))
	copy(out, m.Devices)
	return out
}

// LinksWithNeighbor returns every Link to neighborALMac across every
// local interface. The local interface each Link was observed on is not
// part of the result.
func (m *Model) LinksWithNeighbor(neighborALMac wire.MAC) []*Link {
	if m.Local == nil {
		return nil
	}
	var out []*Link
	for _, iface := range m.Local.Interfaces {
		for _, l := range iface.Links {
			if l.NeighborALMac == neighborALMac {
				out = append(out, l)
			}
		}
	}
	return out
}

// Extensions returns the vendor-specific TLVs cached against alMac, or
// nil if the device is unknown.
func (m *Model) Extensions(alMac wire.MAC) []tlv.VendorSpecific {
	dev, ok := m.DeviceByALMac(alMac)
	if !ok {
		return nil
	}
	return dev.ExtensionTLVs
}

// SetExtensions replaces the vendor-specific TLVs cached against alMac.
// Extension groups call this (via extension.Registry.UpdateExtendedInfo)
// after obtaining their own current non-standard info; the replacement is
// wholesale, not merged, matching the BBF "drop all previous, append the
// new set" policy.
func (m *Model) SetExtensions(alMac wire.MAC, extensions []tlv.VendorSpecific) error {
	dev, ok := m.DeviceByALMac(alMac)
	if !ok {
		return ErrUnknownDevice
	}
	dev.ExtensionTLVs = extensions
	dev.UpdateTimestamp = m.now()
	return nil
}

// DumpEntry is one line of a Model.Dump topology snapshot.
type DumpEntry struct {
	ALMac       wire.MAC
	IsLocal     bool
	LastUpdated time.Time
	Interfaces  int
}

// DumpEntries returns a flat snapshot of every known device, local device
// first, as structured records for callers that want to format their own
// output (tests, alternative renderers).
func (m *Model) DumpEntries() []DumpEntry {
	var out []DumpEntry
	if m.Local != nil {
		out = append(out, DumpEntry{ALMac: m.Local.ALMac, IsLocal: true, LastUpdated: m.Local.UpdateTimestamp, Interfaces: len(m.Local.Interfaces)})
	}
	for _, d := range m.Devices {
		out = append(out, DumpEntry{ALMac: d.ALMac, IsLocal: false, LastUpdated: d.UpdateTimestamp, Interfaces: len(d.RemoteInterfaces)})
	}
	return out
}

// Dump writes a textual snapshot of every known device to w, local device
// first, one line per device.
func (m *Model) Dump(w io.Writer) error {
	for _, e := range m.DumpEntries() {
		role := "neighbor"
		if e.IsLocal {
			role = "local"
		}
		if _, err := fmt.Fprintf(w, "%s %s interfaces=%d updated=%s\n", e.ALMac, role, e.Interfaces, e.LastUpdated.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}
