// Package bbf implements the Broadband Forum non-1905 link-metric vendor
// extension: a CMDU extension group (reacting to LinkMetricQuery/
// LinkMetricResponse) and a data-model extension group (the local
// device's cached non-1905 metrics), both grounded on
// extensions/bbf/bbf_send.c.
//
// Every non-standard TLV this group produces travels inside a standard
// tlv.VendorSpecific envelope stamped with OUI (BBF's registered IEEE
// OUI), with a 1-byte sub-TLV type and 2-byte length prefixing the
// payload — the Go equivalent of vendorSpecificTLVEmbedExtension's single
// embedding convention shared by every extension group.
package bbf

import (
	"errors"

	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/extension"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// OUI is BBF's registered IEEE OUI, used verbatim by the original
// implementation's vendor-specific TLV envelope.
var OUI = [3]byte{0x00, 0x25, 0x6D}

// SubType identifies one of the BBF sub-TLVs embedded in a
// tlv.VendorSpecific body.
type SubType byte

const (
	SubTypeLinkMetricQuery       SubType = 0x01
	SubTypeTransmitterLinkMetric SubType = 0x02
	SubTypeReceiverLinkMetric    SubType = 0x03
	SubTypeLinkMetricResultCode  SubType = 0x04
)

// ResultCode is the outcome reported by a LinkMetricResultCode sub-TLV.
type ResultCode byte

const (
	ResultCodeOK              ResultCode = 0x00
	ResultCodeInvalidNeighbor ResultCode = 0x01
)

var (
	ErrWrongOUI       = errors.New("bbf: vendor-specific TLV does not carry the BBF OUI")
	ErrShortBuffer    = errors.New("bbf: buffer too short")
	ErrLengthMismatch = errors.New("bbf: length prefix does not match payload")
	ErrUnknownSubType = errors.New("bbf: unrecognized sub-TLV type")
)

func embed(subType SubType, payload []byte) tlv.VendorSpecific {
	w := wire.NewWriter(3 + len(payload))
	w.U8(byte(subType))
	w.U16(uint16(len(payload)))
	w.N(payload)
	return tlv.VendorSpecific{OUI: OUI, Body: w.Bytes()}
}

func extract(v tlv.VendorSpecific) (SubType, []byte, error) {
	if v.OUI != OUI {
		return 0, nil, ErrWrongOUI
	}
	r := wire.NewReader(v.Body)
	subType, ok := r.U8()
	if !ok {
		return 0, nil, ErrShortBuffer
	}
	length, ok := r.U16()
	if !ok {
		return 0, nil, ErrShortBuffer
	}
	payload, ok := r.N(int(length))
	if !ok {
		return 0, nil, ErrShortBuffer
	}
	if r.Remaining() != 0 {
		return 0, nil, ErrLengthMismatch
	}
	return SubType(subType), payload, nil
}

// LinkMetricQuery is the non-1905 analogue of tlv.LinkMetricQuery,
// reusing its Destination/MetricsType vocabulary.
type LinkMetricQuery struct {
	Destination tlv.LinkMetricDestination
	NeighborMAC wire.MAC
	MetricsType tlv.LinkMetricsType
}

func (q LinkMetricQuery) embed() tlv.VendorSpecific {
	w := wire.NewWriter(wire.MACLen + 2)
	w.U8(byte(q.Destination))
	w.MAC(q.NeighborMAC)
	w.U8(byte(q.MetricsType))
	return embed(SubTypeLinkMetricQuery, w.Bytes())
}

func parseLinkMetricQuery(payload []byte) (LinkMetricQuery, error) {
	if len(payload) != wire.MACLen+2 {
		return LinkMetricQuery{}, ErrLengthMismatch
	}
	r := wire.NewReader(payload)
	dest, _ := r.U8()
	mac, _ := r.MAC()
	metricsType, _ := r.U8()
	return LinkMetricQuery{
		Destination: tlv.LinkMetricDestination(dest),
		NeighborMAC: mac,
		MetricsType: tlv.LinkMetricsType(metricsType),
	}, nil
}

// TransmitterLinkMetric is one non-1905 link's transmitter-side counters.
type TransmitterLinkMetric struct {
	LocalInterfaceMAC  wire.MAC
	NeighborMAC        wire.MAC
	PacketErrors       uint32
	TransmittedPackets uint32
}

func (m TransmitterLinkMetric) embed() tlv.VendorSpecific {
	w := wire.NewWriter(2*wire.MACLen + 8)
	w.MAC(m.LocalInterfaceMAC)
	w.MAC(m.NeighborMAC)
	w.U32(m.PacketErrors)
	w.U32(m.TransmittedPackets)
	return embed(SubTypeTransmitterLinkMetric, w.Bytes())
}

func parseTransmitterLinkMetric(payload []byte) (TransmitterLinkMetric, error) {
	if len(payload) != 2*wire.MACLen+8 {
		return TransmitterLinkMetric{}, ErrLengthMismatch
	}
	r := wire.NewReader(payload)
	local, _ := r.MAC()
	neighbor, _ := r.MAC()
	errs, _ := r.U32()
	sent, _ := r.U32()
	return TransmitterLinkMetric{LocalInterfaceMAC: local, NeighborMAC: neighbor, PacketErrors: errs, TransmittedPackets: sent}, nil
}

// ReceiverLinkMetric is one non-1905 link's receiver-side counters.
type ReceiverLinkMetric struct {
	LocalInterfaceMAC wire.MAC
	NeighborMAC       wire.MAC
	PacketErrors      uint32
	ReceivedPackets   uint32
}

func (m ReceiverLinkMetric) embed() tlv.VendorSpecific {
	w := wire.NewWriter(2*wire.MACLen + 8)
	w.MAC(m.LocalInterfaceMAC)
	w.MAC(m.NeighborMAC)
	w.U32(m.PacketErrors)
	w.U32(m.ReceivedPackets)
	return embed(SubTypeReceiverLinkMetric, w.Bytes())
}

func parseReceiverLinkMetric(payload []byte) (ReceiverLinkMetric, error) {
	if len(payload) != 2*wire.MACLen+8 {
		return ReceiverLinkMetric{}, ErrLengthMismatch
	}
	r := wire.NewReader(payload)
	local, _ := r.MAC()
	neighbor, _ := r.MAC()
	errs, _ := r.U32()
	received, _ := r.U32()
	return ReceiverLinkMetric{LocalInterfaceMAC: local, NeighborMAC: neighbor, PacketErrors: errs, ReceivedPackets: received}, nil
}

// LinkMetricResultCode reports a query failure (e.g. an unknown
// neighbor), mirroring LINK_METRIC_RESULT_CODE_TLV_INVALID_NEIGHBOR.
type LinkMetricResultCode struct {
	Code ResultCode
}

func (r LinkMetricResultCode) embed() tlv.VendorSpecific {
	return embed(SubTypeLinkMetricResultCode, []byte{byte(r.Code)})
}

func parseLinkMetricResultCode(payload []byte) (LinkMetricResultCode, error) {
	if len(payload) != 1 {
		return LinkMetricResultCode{}, ErrLengthMismatch
	}
	return LinkMetricResultCode{Code: ResultCode(payload[0])}, nil
}

// NeighborMetrics is one non-1905 neighbor's counters as reported by a
// NeighborMetricsProvider.
type NeighborMetrics struct {
	LocalInterfaceMAC wire.MAC
	NeighborMAC       wire.MAC
	Transmitter       *TransmitterLinkMetric
	Receiver          *ReceiverLinkMetric
}

// NeighborMetricsProvider supplies the current non-1905 neighbor metrics
// for the local device; platform interface polling is an external
// collaborator, so this group only defines the seam it plugs into.
type NeighborMetricsProvider interface {
	NonStandardNeighborMetrics(m *datamodel.Model) ([]NeighborMetrics, error)
}

// Group is the BBF extension group: a CMDU-extension reacting to
// LinkMetricQuery/LinkMetricResponse, and a data-model extension caching
// the local device's current non-1905 metrics.
type Group struct {
	Provider NeighborMetricsProvider
}

// New returns a Group backed by provider.
func New(provider NeighborMetricsProvider) *Group {
	return &Group{Provider: provider}
}

// Register installs the group's CMDU-extension and data-model-extension
// callbacks into r under the name "bbf".
func (g *Group) Register(r *extension.Registry) {
	r.RegisterCMDUExtension("bbf", g.process, g.send)
	r.RegisterDataModelExtension("bbf", g.obtain, g.update)
}

// process inspects an inbound LinkMetricResponse CMDU for BBF vendor
// TLVs, caching any found metrics against the sending device.
func (g *Group) process(m *datamodel.Model, senderALMac wire.MAC, c *cmdu.CMDU) error {
	if c.Header.MessageType != cmdu.TypeLinkMetricResponse {
		return nil
	}
	var bbfTLVs []tlv.VendorSpecific
	for _, t := range c.TLVs {
		if v, ok := t.(tlv.VendorSpecific); ok && v.OUI == OUI {
			bbfTLVs = append(bbfTLVs, v)
		}
	}
	if len(bbfTLVs) == 0 {
		return nil
	}
	// Replace, don't merge: every LinkMetricResponse fully supersedes the
	// sender's previously cached BBF metrics.
	return m.SetExtensions(senderALMac, bbfTLVs)
}

// send appends the group's non-standard TLVs to an outbound CMDU: a
// LinkMetricQuery asking every neighbor for both directions' counters,
// or, on a LinkMetricResponse, the Provider's current non-1905 neighbor
// metrics, one TransmitterLinkMetric/ReceiverLinkMetric vendor TLV pair
// per neighbor, or a LinkMetricResultCode if the provider reports none.
func (g *Group) send(m *datamodel.Model, c *cmdu.CMDU) error {
	switch c.Header.MessageType {
	case cmdu.TypeLinkMetricQuery:
		c.TLVs = append(c.TLVs, LinkMetricQuery{
			Destination: tlv.DestinationAllNeighbors,
			MetricsType: tlv.LinkMetricsBoth,
		}.embed())
		return nil
	case cmdu.TypeLinkMetricResponse:
	default:
		return nil
	}
	if g.Provider == nil {
		return nil
	}
	neighbors, err := g.Provider.NonStandardNeighborMetrics(m)
	if err != nil {
		return err
	}
	if len(neighbors) == 0 {
		c.TLVs = append(c.TLVs, LinkMetricResultCode{Code: ResultCodeInvalidNeighbor}.embed())
		return nil
	}
	for _, n := range neighbors {
		if n.Transmitter != nil {
			c.TLVs = append(c.TLVs, n.Transmitter.embed())
		}
		if n.Receiver != nil {
			c.TLVs = append(c.TLVs, n.Receiver.embed())
		}
	}
	return nil
}

// obtain returns the local device's currently cached BBF extension TLVs,
// re-read from the data model (whatever was last stored against the local
// AL MAC through SetExtensions, e.g. via update).
func (g *Group) obtain(m *datamodel.Model) ([]tlv.VendorSpecific, error) {
	if m.Local == nil {
		return nil, nil
	}
	var out []tlv.VendorSpecific
	for _, v := range m.Extensions(m.Local.ALMac) {
		if v.OUI == OUI {
			out = append(out, v)
		}
	}
	return out, nil
}

// update replaces every extension TLV cached against alMac with extensions.
func (g *Group) update(m *datamodel.Model, alMac wire.MAC, extensions []tlv.VendorSpecific) error {
	return m.SetExtensions(alMac, extensions)
}

// Decode interprets the sub-TLV embedded in v, returning one of
// LinkMetricQuery, TransmitterLinkMetric, ReceiverLinkMetric, or
// LinkMetricResultCode.
func Decode(v tlv.VendorSpecific) (interface{}, error) {
	subType, payload, err := extract(v)
	if err != nil {
		return nil, err
	}
	switch subType {
	case SubTypeLinkMetricQuery:
		return parseLinkMetricQuery(payload)
	case SubTypeTransmitterLinkMetric:
		return parseTransmitterLinkMetric(payload)
	case SubTypeReceiverLinkMetric:
		return parseReceiverLinkMetric(payload)
	case SubTypeLinkMetricResultCode:
		return parseLinkMetricResultCode(payload)
	default:
		return nil, ErrUnknownSubType
	}
}
