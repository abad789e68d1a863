package bbf

import (
	"errors"
	"testing"

	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/extension"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

func mac(b byte) wire.MAC { return wire.MAC{0x02, 0, 0, 0, 0, b} }

func TestEmbedExtractRoundTrip(t *testing.T) {
	want := TransmitterLinkMetric{
		LocalInterfaceMAC:  mac(1),
		NeighborMAC:        mac(2),
		PacketErrors:       3,
		TransmittedPackets: 400,
	}
	v := want.embed()
	if v.OUI != OUI {
		t.Fatalf("embed did not stamp the BBF OUI, got %x", v.OUI)
	}
	decoded, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(TransmitterLinkMetric)
	if !ok {
		t.Fatalf("expected TransmitterLinkMetric, got %T", decoded)
	}
	if got != want {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestExtractRejectsWrongOUI(t *testing.T) {
	v := tlv.VendorSpecific{OUI: [3]byte{0x00, 0x00, 0x00}, Body: []byte{byte(SubTypeLinkMetricResultCode), 0, 1, 0}}
	_, err := Decode(v)
	if !errors.Is(err, ErrWrongOUI) {
		t.Fatalf("expected ErrWrongOUI, got %v", err)
	}
}

func TestExtractRejectsLengthMismatch(t *testing.T) {
	// Length prefix claims 1 byte of payload, but 2 trailing bytes follow.
	v := tlv.VendorSpecific{OUI: OUI, Body: []byte{byte(SubTypeLinkMetricResultCode), 0, 1, 0xAA, 0xBB}}
	_, err := Decode(v)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestLinkMetricResultCodeRoundTrip(t *testing.T) {
	v := LinkMetricResultCode{Code: ResultCodeInvalidNeighbor}.embed()
	decoded, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(LinkMetricResultCode)
	if !ok || got.Code != ResultCodeInvalidNeighbor {
		t.Fatalf("expected LinkMetricResultCode{InvalidNeighbor}, got %#v", decoded)
	}
}

type fakeProvider struct {
	metrics []NeighborMetrics
	err     error
}

func (f fakeProvider) NonStandardNeighborMetrics(m *datamodel.Model) ([]NeighborMetrics, error) {
	return f.metrics, f.err
}

func newModelWithNeighbor(t *testing.T, alMac wire.MAC) *datamodel.Model {
	t.Helper()
	m := datamodel.New()
	if err := m.SetLocalALMac(mac(0)); err != nil {
		t.Fatalf("SetLocalALMac: %v", err)
	}
	if err := m.UpdateNetworkDeviceInfo(alMac, datamodel.DeviceInfoUpdate{DeviceInfo: &tlv.DeviceInformation{ALMac: alMac}}); err != nil {
		t.Fatalf("UpdateNetworkDeviceInfo: %v", err)
	}
	return m
}

func TestSendAppendsResultCodeWhenNoNeighbors(t *testing.T) {
	g := New(fakeProvider{})
	m := newModelWithNeighbor(t, mac(1))
	c := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricResponse}}
	if err := g.send(m, c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.TLVs) != 1 {
		t.Fatalf("expected 1 TLV, got %d", len(c.TLVs))
	}
	v, ok := c.TLVs[0].(tlv.VendorSpecific)
	if !ok {
		t.Fatalf("expected a VendorSpecific TLV, got %T", c.TLVs[0])
	}
	decoded, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := decoded.(LinkMetricResultCode); !ok {
		t.Fatalf("expected LinkMetricResultCode, got %T", decoded)
	}
}

func TestSendAppendsMetricsPerNeighbor(t *testing.T) {
	tx := TransmitterLinkMetric{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2), PacketErrors: 1, TransmittedPackets: 2}
	rx := ReceiverLinkMetric{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2), PacketErrors: 3, ReceivedPackets: 4}
	g := New(fakeProvider{metrics: []NeighborMetrics{{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2), Transmitter: &tx, Receiver: &rx}}})
	m := newModelWithNeighbor(t, mac(1))
	c := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricResponse}}
	if err := g.send(m, c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.TLVs) != 2 {
		t.Fatalf("expected 2 TLVs, got %d", len(c.TLVs))
	}
}

func TestSendAppendsLinkMetricQueryOnOutboundQuery(t *testing.T) {
	g := New(fakeProvider{})
	m := newModelWithNeighbor(t, mac(1))
	c := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricQuery}}
	if err := g.send(m, c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.TLVs) != 1 {
		t.Fatalf("expected 1 TLV, got %d", len(c.TLVs))
	}
	v, ok := c.TLVs[0].(tlv.VendorSpecific)
	if !ok {
		t.Fatalf("expected a VendorSpecific TLV, got %T", c.TLVs[0])
	}
	decoded, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	q, ok := decoded.(LinkMetricQuery)
	if !ok {
		t.Fatalf("expected LinkMetricQuery, got %T", decoded)
	}
	if q.Destination != tlv.DestinationAllNeighbors {
		t.Fatalf("expected Destination=AllNeighbors, got %v", q.Destination)
	}
	if q.MetricsType != tlv.LinkMetricsBoth {
		t.Fatalf("expected MetricsType=Both, got %v", q.MetricsType)
	}
}

func TestSendIgnoresOtherMessageTypes(t *testing.T) {
	g := New(fakeProvider{})
	m := newModelWithNeighbor(t, mac(1))
	c := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeTopologyQuery}}
	if err := g.send(m, c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.TLVs) != 0 {
		t.Fatalf("expected no TLVs appended for a non-response CMDU, got %d", len(c.TLVs))
	}
}

func TestProcessCachesAndReplacesMetrics(t *testing.T) {
	g := New(fakeProvider{})
	m := newModelWithNeighbor(t, mac(1))

	first := []tlv.TLV{TransmitterLinkMetric{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2), PacketErrors: 1}.embed()}
	c := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricResponse}, TLVs: first}
	if err := g.process(m, mac(1), c); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := m.Extensions(mac(1)); len(got) != 1 {
		t.Fatalf("expected 1 cached extension TLV, got %d", len(got))
	}

	second := []tlv.TLV{
		ReceiverLinkMetric{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2), PacketErrors: 2}.embed(),
		LinkMetricResultCode{Code: ResultCodeOK}.embed(),
	}
	c2 := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricResponse}, TLVs: second}
	if err := g.process(m, mac(1), c2); err != nil {
		t.Fatalf("process: %v", err)
	}
	got := m.Extensions(mac(1))
	if len(got) != 2 {
		t.Fatalf("expected the second response to wholesale-replace the cache, got %d entries", len(got))
	}
}

func TestProcessIgnoresOtherMessageTypes(t *testing.T) {
	g := New(fakeProvider{})
	m := newModelWithNeighbor(t, mac(1))
	c := &cmdu.CMDU{
		Header: cmdu.Header{MessageType: cmdu.TypeTopologyQuery},
		TLVs:   []tlv.TLV{TransmitterLinkMetric{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2)}.embed()},
	}
	if err := g.process(m, mac(1), c); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := m.Extensions(mac(1)); len(got) != 0 {
		t.Fatalf("expected no cached extensions for a non-response CMDU, got %d", len(got))
	}
}

func TestObtainReturnsCachedBBFTLVsOnly(t *testing.T) {
	g := New(fakeProvider{})
	m := datamodel.New()
	if err := m.SetLocalALMac(mac(0)); err != nil {
		t.Fatalf("SetLocalALMac: %v", err)
	}
	bbfTLV := TransmitterLinkMetric{LocalInterfaceMAC: mac(1), NeighborMAC: mac(2)}.embed()
	other := tlv.VendorSpecific{OUI: [3]byte{0xAA, 0xBB, 0xCC}, Body: []byte{1}}
	if err := m.SetExtensions(mac(0), []tlv.VendorSpecific{bbfTLV, other}); err != nil {
		t.Fatalf("SetExtensions: %v", err)
	}
	extensions, err := g.obtain(m)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}
	if len(extensions) != 1 {
		t.Fatalf("expected only the BBF-OUI TLV, got %d", len(extensions))
	}
}

func TestRegisterWiresBothGroups(t *testing.T) {
	g := New(fakeProvider{})
	r := extension.NewRegistry()
	g.Register(r)

	m := newModelWithNeighbor(t, mac(1))
	c := &cmdu.CMDU{Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricResponse}}
	if err := r.SendCMDUExtensions(m, c); err != nil {
		t.Fatalf("SendCMDUExtensions: %v", err)
	}
	if len(c.TLVs) == 0 {
		t.Fatalf("expected the registered bbf group to append at least one TLV")
	}
	if err := r.ProcessCMDUExtensions(m, mac(1), c); err != nil {
		t.Fatalf("ProcessCMDUExtensions: %v", err)
	}

	ext := []tlv.VendorSpecific{{OUI: OUI, Body: []byte{0x01}}}
	if err := r.UpdateExtendedInfo(m, mac(0), ext); err != nil {
		t.Fatalf("UpdateExtendedInfo: %v", err)
	}
	got, err := r.ObtainExtendedLocalInfo(m)
	if err != nil {
		t.Fatalf("ObtainExtendedLocalInfo: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the registered bbf data-model group to return 1 cached TLV, got %d", len(got))
	}
}
