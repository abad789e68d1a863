// Package datamodel implements the in-memory network topology: local
// interfaces, their 1905 neighbors, remote interface descriptors, a
// per-device TLV cache with timestamps, per-link metrics, bridged
// inference, and a garbage collector that ages stale devices out.
//
// Grounded on al_datamodel.h (original_source, the full data-model
// contract). Modeled as an explicit context object rather than a
// process-wide singleton: every type here is a value or pointer receiver,
// never package-level mutable state.
package datamodel

import (
	"errors"
	"time"

	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// Timing constants.
const (
	MaxAge             = 50 * time.Second
	GCMaxAge           = 90 * time.Second
	DiscoveryThreshold = 120 * time.Second
)

// TimestampKind selects which of a link's two discovery timestamps
// UpdateDiscoveryTimestamps refreshes.
type TimestampKind int

const (
	TimestampTopologyDiscovery TimestampKind = iota
	TimestampBridgeDiscovery
)

// UpdateResult is the tri-state return of UpdateDiscoveryTimestamps.
type UpdateResult int

const (
	UpdateError     UpdateResult = 0
	UpdateCreated   UpdateResult = 1
	UpdateRefreshed UpdateResult = 2
)

// BridgeResult is the tri-state return of the Is*Bridged family.
type BridgeResult int

const (
	BridgeNotBridged BridgeResult = 0
	BridgeBridged    BridgeResult = 1
	BridgeUnknown    BridgeResult = 2
)

// Errors returned by precondition-checked operations.
var (
	ErrLocalAlreadySet      = errors.New("datamodel: local AL MAC already set")
	ErrNoLocalDevice        = errors.New("datamodel: local device not yet created")
	ErrInterfaceMACConflict = errors.New("datamodel: interface name already exists with a different MAC")
	ErrUnknownInterface     = errors.New("datamodel: no local interface with that MAC")
	ErrMissingDeviceInfo    = errors.New("datamodel: cannot create a device record without a device-information TLV")
	ErrUnknownDevice        = errors.New("datamodel: no device record for that AL MAC")
	ErrUnsupportedMetricTLV = errors.New("datamodel: metric TLV is neither a transmitter nor a receiver link metric")
)

// Link is one observed (local interface, neighbor AL MAC, remote
// interface MAC) relationship, tracking the two discovery timestamps that
// feed bridged/non-bridged inference.
type Link struct {
	NeighborALMac         wire.MAC
	RemoteMAC             wire.MAC
	LastTopologyDiscovery time.Time
	LastBridgeDiscovery   time.Time
}

func (l *Link) timestamp(kind TimestampKind) time.Time {
	if kind == TimestampBridgeDiscovery {
		return l.LastBridgeDiscovery
	}
	return l.LastTopologyDiscovery
}

func (l *Link) setTimestamp(kind TimestampKind, t time.Time) {
	if kind == TimestampBridgeDiscovery {
		l.LastBridgeDiscovery = t
	} else {
		l.LastTopologyDiscovery = t
	}
}

func (l *Link) bridged() BridgeResult {
	if l.LastTopologyDiscovery.IsZero() || l.LastBridgeDiscovery.IsZero() {
		return BridgeNotBridged
	}
	delta := l.LastTopologyDiscovery.Sub(l.LastBridgeDiscovery)
	if delta < 0 {
		delta = -delta
	}
	if delta >= DiscoveryThreshold {
		return BridgeBridged
	}
	return BridgeNotBridged
}

// Interface is a local 1905 interface: its name, MAC, and every Link
// discovered through it.
type Interface struct {
	Name  string
	MAC   wire.MAC
	Links []*Link
}

func (i *Interface) link(neighborALMac, remoteMAC wire.MAC) *Link {
	for _, l := range i.Links {
		if l.NeighborALMac == neighborALMac && l.RemoteMAC == remoteMAC {
			return l
		}
	}
	return nil
}

// Device is one 1905 node: the local device (IsLocal true, owning the
// local Interfaces) or a discovered neighbor (owning cached TLVs and
// metrics, and the remote interface MACs observed for it).
type Device struct {
	ALMac   wire.MAC
	IsLocal bool

	// Populated on the local device only.
	Interfaces []*Interface

	// Populated on neighbor devices: every remote interface MAC seen
	// belonging to this device, for macToAlMac lookups.
	RemoteInterfaces []wire.MAC

	DeviceInfo         *tlv.DeviceInformation
	BridgingCapability *tlv.DeviceBridgingCapability
	Non1905Neighbors   *tlv.Non1905NeighborDeviceList
	SupportedService   *tlv.SupportedService
	APOperationalBSS   *tlv.APOperationalBSS
	AssociatedClients  *tlv.AssociatedClients

	// Single-instance-per-device slots (0 or 1 TLV each).
	GenericPhy           *tlv.GenericPhyDeviceInformation
	ProfileVersion       *tlv.ProfileVersion
	DeviceIdentification *tlv.DeviceIdentification
	ControlURL           *tlv.ControlURL
	IPv4                 *tlv.IPv4
	IPv6                 *tlv.IPv6

	// Multi-instance-per-device slots.
	NeighborDevices    []tlv.NeighborDeviceList
	PowerOffInterfaces []tlv.PowerOffInterface
	L2Neighbors        []tlv.L2NeighborDevice

	TxMetrics map[wire.MAC]tlv.TransmitterLinkMetric
	RxMetrics map[wire.MAC]tlv.ReceiverLinkMetric

	ExtensionTLVs []tlv.VendorSpecific

	UpdateTimestamp time.Time
}

func newDevice(alMac wire.MAC, isLocal bool, now time.Time) *Device {
	return &Device{
		ALMac:           alMac,
		IsLocal:         isLocal,
		TxMetrics:       map[wire.MAC]tlv.TransmitterLinkMetric{},
		RxMetrics:       map[wire.MAC]tlv.ReceiverLinkMetric{},
		UpdateTimestamp: now,
	}
}

func (d *Device) hasRemoteInterface(mac wire.MAC) bool {
	for _, m := range d.RemoteInterfaces {
		if m == mac {
			return true
		}
	}
	return false
}

func (d *Device) addRemoteInterface(mac wire.MAC) {
	if !d.hasRemoteInterface(mac) {
		d.RemoteInterfaces = append(d.RemoteInterfaces, mac)
	}
}

// Model is the stack context's topology: the local device (once set)
// plus every discovered neighbor device. All methods assume the
// single-threaded cooperative scheduling model of the owning stack: no
// synchronization is performed here.
type Model struct {
	Local   *Device
	Devices []*Device

	// Now returns the current time; overridable for deterministic tests.
	Now func() time.Time

	registrar registrar
}

// New creates an empty Model: zero devices, local device not yet
// allocated.
func New() *Model {
	return &Model{Now: time.Now}
}

func (m *Model) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// SetLocalALMac creates the local Device exactly once.
func (m *Model) SetLocalALMac(mac wire.MAC) error {
	if m.Local != nil {
		return ErrLocalAlreadySet
	}
	m.Local = newDevice(mac, true, m.now())
	return nil
}

// InsertInterface idempotently registers a local interface: a repeat call
// with the same (name, mac) is a no-op; a name collision with a different
// MAC is rejected.
func (m *Model) InsertInterface(name string, mac wire.MAC) error {
	if m.Local == nil {
		return ErrNoLocalDevice
	}
	for _, i := range m.Local.Interfaces {
		if i.Name == name {
			if i.MAC != mac {
				return ErrInterfaceMACConflict
			}
			return nil
		}
	}
	m.Local.Interfaces = append(m.Local.Interfaces, &Interface{Name: name, MAC: mac})
	return nil
}

// InterfaceByName returns the local interface named name, if any.
func (m *Model) InterfaceByName(name string) (*Interface, bool) {
	if m.Local == nil {
		return nil, false
	}
	for _, i := range m.Local.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}

// InterfaceByMAC returns the local interface with the given MAC, if any.
func (m *Model) InterfaceByMAC(mac wire.MAC) (*Interface, bool) {
	if m.Local == nil {
		return nil, false
	}
	for _, i := range m.Local.Interfaces {
		if i.MAC == mac {
			return i, true
		}
	}
	return nil, false
}

// DeviceByALMac returns the (local or neighbor) Device with the given AL
// MAC, if any.
func (m *Model) DeviceByALMac(mac wire.MAC) (*Device, bool) {
	if m.Local != nil && m.Local.ALMac == mac {
		return m.Local, true
	}
	for _, d := range m.Devices {
		if d.ALMac == mac {
			return d, true
		}
	}
	return nil, false
}

// UpdateDiscoveryTimestamps upserts the neighbor Device, its remote
// interface record, and the Link between localIfMAC and
// (neighborALMac, remoteIfMAC), refreshing the timestamp of the given
// kind. Returns UpdateCreated when no timestamp of this kind had been
// recorded for this exact Link yet (a new Link, or the first discovery of
// this kind on a Link already seen through the other kind),
// UpdateRefreshed otherwise (with elapsed set to the delta since the prior
// timestamp of that kind), or UpdateError if localIfMAC names no local
// interface.
func (m *Model) UpdateDiscoveryTimestamps(localIfMAC, neighborALMac, remoteIfMAC wire.MAC, kind TimestampKind) (UpdateResult, time.Duration) {
	iface, ok := m.InterfaceByMAC(localIfMAC)
	if !ok {
		return UpdateError, 0
	}
	now := m.now()

	neighbor, ok := m.DeviceByALMac(neighborALMac)
	if !ok {
		neighbor = newDevice(neighborALMac, false, now)
		m.Devices = append(m.Devices, neighbor)
	}
	neighbor.addRemoteInterface(remoteIfMAC)

	link := iface.link(neighborALMac, remoteIfMAC)
	if link == nil {
		link = &Link{NeighborALMac: neighborALMac, RemoteMAC: remoteIfMAC}
		iface.Links = append(iface.Links, link)
		link.setTimestamp(kind, now)
		return UpdateCreated, 0
	}
	prior := link.timestamp(kind)
	link.setTimestamp(kind, now)
	if prior.IsZero() {
		return UpdateCreated, 0
	}
	return UpdateRefreshed, now.Sub(prior)
}

// IsLinkBridged reports whether a specific link's two discovery
// timestamps differ by at least DiscoveryThreshold.
func (m *Model) IsLinkBridged(localIfMAC, neighborALMac, remoteIfMAC wire.MAC) BridgeResult {
	iface, ok := m.InterfaceByMAC(localIfMAC)
	if !ok {
		return BridgeUnknown
	}
	link := iface.link(neighborALMac, remoteIfMAC)
	if link == nil {
		return BridgeUnknown
	}
	return link.bridged()
}

// IsNeighborBridged ORs IsLinkBridged over every link to neighborALMac
// across every local interface.
func (m *Model) IsNeighborBridged(neighborALMac wire.MAC) BridgeResult {
	if m.Local == nil {
		return BridgeUnknown
	}
	found := false
	for _, iface := range m.Local.Interfaces {
		for _, l := range iface.Links {
			if l.NeighborALMac != neighborALMac {
				continue
			}
			found = true
			if l.bridged() == BridgeBridged {
				return BridgeBridged
			}
		}
	}
	if !found {
		return BridgeUnknown
	}
	return BridgeNotBridged
}

// IsInterfaceBridged ORs IsLinkBridged over every link on localIfMAC.
func (m *Model) IsInterfaceBridged(localIfMAC wire.MAC) BridgeResult {
	iface, ok := m.InterfaceByMAC(localIfMAC)
	if !ok {
		return BridgeUnknown
	}
	if len(iface.Links) == 0 {
		return BridgeUnknown
	}
	for _, l := range iface.Links {
		if l.bridged() == BridgeBridged {
			return BridgeBridged
		}
	}
	return BridgeNotBridged
}

// MacToAlMac searches the local device and every known neighbor
// interface for mac, returning the owning device's AL MAC.
func (m *Model) MacToAlMac(mac wire.MAC) (wire.MAC, bool) {
	if m.Local != nil {
		if m.Local.ALMac == mac {
			return m.Local.ALMac, true
		}
		for _, iface := range m.Local.Interfaces {
			if iface.MAC == mac {
				return m.Local.ALMac, true
			}
		}
	}
	for _, d := range m.Devices {
		if d.ALMac == mac {
			return d.ALMac, true
		}
		if d.hasRemoteInterface(mac) {
			return d.ALMac, true
		}
	}
	return wire.MAC{}, false
}
