package tlv

import (
	"github.com/broadband-mesh/al1905/wire"
)

func init() {
	register(TypeLinkMetricQuery, parseLinkMetricQuery)
	register(TypeTransmitterLinkMetric, parseTransmitterLinkMetric)
	register(TypeReceiverLinkMetric, parseReceiverLinkMetric)
}

// LinkMetricDestination selects which neighbor(s) a LinkMetricQuery targets.
type LinkMetricDestination byte

const (
	// DestinationAllNeighbors asks for metrics to every neighbor.
	DestinationAllNeighbors LinkMetricDestination = 0x00
	// DestinationSpecificNeighbor asks for metrics to one neighbor,
	// identified by LinkMetricQuery.NeighborMAC.
	DestinationSpecificNeighbor LinkMetricDestination = 0x01
)

// LinkMetricsType selects which metric direction(s) are requested.
type LinkMetricsType byte

const (
	LinkMetricsTx   LinkMetricsType = 0x00
	LinkMetricsRx   LinkMetricsType = 0x01
	LinkMetricsBoth LinkMetricsType = 0x02
)

// LinkMetricQuery requests transmitter and/or receiver link metrics from
// one or all neighbors.
//
// Interop quirk: when Destination is
// DestinationAllNeighbors, the 6-byte neighbor-MAC field is unused by the
// standard, but on forge this implementation sets its first byte to the
// LinkMetricsType value (not zero), to stay wire-compatible with
// implementations that omit the MAC field in that case.
type LinkMetricQuery struct {
	Destination LinkMetricDestination
	NeighborMAC wire.MAC // only meaningful when Destination == DestinationSpecificNeighbor
	MetricsType LinkMetricsType
}

func (LinkMetricQuery) Type() Type { return TypeLinkMetricQuery }

func (t LinkMetricQuery) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(8)
	w.U8(byte(t.Destination))
	if t.Destination == DestinationAllNeighbors {
		var quirk wire.MAC
		quirk[0] = byte(t.MetricsType)
		w.MAC(quirk)
	} else {
		w.MAC(t.NeighborMAC)
	}
	w.U8(byte(t.MetricsType))
	return w.Bytes(), nil
}

func parseLinkMetricQuery(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 8 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	dest, _ := r.U8()
	mac, _ := r.MAC()
	metricsType, _ := r.U8()
	q := LinkMetricQuery{
		Destination: LinkMetricDestination(dest),
		MetricsType: LinkMetricsType(metricsType),
	}
	if q.Destination == DestinationSpecificNeighbor {
		q.NeighborMAC = mac
	}
	return q, nil
}

// LinkMetricLinkEntry describes the per-link fields common to transmitter
// and receiver link metrics.
type LinkMetricLinkEntry struct {
	LocalMAC     wire.MAC
	RemoteMAC    wire.MAC
	MediaType    MediaType
	BridgesIEEE1905 bool
}

func (e LinkMetricLinkEntry) forge(w *wire.Writer) {
	w.MAC(e.LocalMAC)
	w.MAC(e.RemoteMAC)
	w.U16(uint16(e.MediaType))
	if e.BridgesIEEE1905 {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func parseLinkMetricLinkEntry(r *wire.Reader) (LinkMetricLinkEntry, bool) {
	var e LinkMetricLinkEntry
	local, ok := r.MAC()
	if !ok {
		return e, false
	}
	remote, ok := r.MAC()
	if !ok {
		return e, false
	}
	mt, ok := r.U16()
	if !ok {
		return e, false
	}
	bridged, ok := r.U8()
	if !ok {
		return e, false
	}
	return LinkMetricLinkEntry{
		LocalMAC:        local,
		RemoteMAC:       remote,
		MediaType:       MediaType(mt),
		BridgesIEEE1905: bridged != 0,
	}, true
}

// TransmitterLinkEntry is one link's transmitter-side metrics.
type TransmitterLinkEntry struct {
	Link             LinkMetricLinkEntry
	PacketErrors     uint32
	TransmittedPackets uint32
	MACThroughputCapacity uint16
	LinkAvailability uint16
	PHYRate          uint16
}

// TransmitterLinkMetric carries transmitter-side metrics for every link
// between the sender and one neighbor.
type TransmitterLinkMetric struct {
	LocalALMac    wire.MAC
	NeighborALMac wire.MAC
	Links         []TransmitterLinkEntry
}

func (TransmitterLinkMetric) Type() Type { return TypeTransmitterLinkMetric }

func (t TransmitterLinkMetric) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(2 * wire.MACLen)
	w.MAC(t.LocalALMac)
	w.MAC(t.NeighborALMac)
	for _, e := range t.Links {
		e.Link.forge(w)
		w.U32(e.PacketErrors)
		w.U32(e.TransmittedPackets)
		w.U16(e.MACThroughputCapacity)
		w.U16(e.LinkAvailability)
		w.U16(e.PHYRate)
	}
	return w.Bytes(), nil
}

func parseTransmitterLinkMetric(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	local, ok := r.MAC()
	if !ok {
		return nil, ErrShortBuffer
	}
	neighbor, ok := r.MAC()
	if !ok {
		return nil, ErrShortBuffer
	}
	var links []TransmitterLinkEntry
	for r.Remaining() > 0 {
		link, ok := parseLinkMetricLinkEntry(r)
		if !ok {
			return nil, ErrShortBuffer
		}
		errs, ok := r.U32()
		if !ok {
			return nil, ErrShortBuffer
		}
		sent, ok := r.U32()
		if !ok {
			return nil, ErrShortBuffer
		}
		cap, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		avail, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		phy, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		links = append(links, TransmitterLinkEntry{
			Link:                  link,
			PacketErrors:          errs,
			TransmittedPackets:    sent,
			MACThroughputCapacity: cap,
			LinkAvailability:      avail,
			PHYRate:               phy,
		})
	}
	return TransmitterLinkMetric{LocalALMac: local, NeighborALMac: neighbor, Links: links}, nil
}

// ReceiverLinkEntry is one link's receiver-side metrics.
type ReceiverLinkEntry struct {
	Link          LinkMetricLinkEntry
	PacketErrors  uint32
	ReceivedPackets uint32
	RSSI          byte
}

// ReceiverLinkMetric carries receiver-side metrics for every link between
// the sender and one neighbor.
type ReceiverLinkMetric struct {
	LocalALMac    wire.MAC
	NeighborALMac wire.MAC
	Links         []ReceiverLinkEntry
}

func (ReceiverLinkMetric) Type() Type { return TypeReceiverLinkMetric }

func (t ReceiverLinkMetric) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(2 * wire.MACLen)
	w.MAC(t.LocalALMac)
	w.MAC(t.NeighborALMac)
	for _, e := range t.Links {
		e.Link.forge(w)
		w.U32(e.PacketErrors)
		w.U32(e.ReceivedPackets)
		w.U8(e.RSSI)
	}
	return w.Bytes(), nil
}

func parseReceiverLinkMetric(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	local, ok := r.MAC()
	if !ok {
		return nil, ErrShortBuffer
	}
	neighbor, ok := r.MAC()
	if !ok {
		return nil, ErrShortBuffer
	}
	var links []ReceiverLinkEntry
	for r.Remaining() > 0 {
		link, ok := parseLinkMetricLinkEntry(r)
		if !ok {
			return nil, ErrShortBuffer
		}
		errs, ok := r.U32()
		if !ok {
			return nil, ErrShortBuffer
		}
		recv, ok := r.U32()
		if !ok {
			return nil, ErrShortBuffer
		}
		rssi, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		links = append(links, ReceiverLinkEntry{Link: link, PacketErrors: errs, ReceivedPackets: recv, RSSI: rssi})
	}
	return ReceiverLinkMetric{LocalALMac: local, NeighborALMac: neighbor, Links: links}, nil
}
