package stack

import (
	"testing"

	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

func newTestStack(t *testing.T) *Stack {
	t.Helper()
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// TestHandleCMDUTopologyDiscoveryUpdatesDiscoveryTimestamps exercises
// spec.md's S1 scenario: a topology-discovery CMDU received on a local
// interface creates a discovery-timestamp link to the announced neighbor,
// which is not yet bridged (no bridge-discovery has been observed).
func TestHandleCMDUTopologyDiscoveryUpdatesDiscoveryTimestamps(t *testing.T) {
	s := newTestStack(t)
	local := wire.MAC{0x02, 0, 0, 0, 0, 0x01}
	eth0 := wire.MAC{0x02, 0, 0, 0, 0, 0x02}
	neighborAL := wire.MAC{0x02, 0, 0, 0, 0, 0xAA}
	remoteIf := wire.MAC{0x02, 0, 0, 0, 0, 0xAB}

	if err := s.Model.SetLocalALMac(local); err != nil {
		t.Fatalf("SetLocalALMac: %v", err)
	}
	if err := s.Model.InsertInterface("eth0", eth0); err != nil {
		t.Fatalf("InsertInterface: %v", err)
	}

	c := &cmdu.CMDU{
		Header: cmdu.Header{MessageType: cmdu.TypeTopologyDiscovery},
		TLVs: []tlv.TLV{
			tlv.ALMacAddress{MAC: neighborAL},
			tlv.MacAddress{MAC: remoteIf},
		},
	}
	if err := s.HandleCMDU(eth0, neighborAL, c); err != nil {
		t.Fatalf("HandleCMDU: %v", err)
	}

	neighbors := s.Model.InterfaceNeighbors("eth0")
	if len(neighbors) != 1 || neighbors[0] != neighborAL {
		t.Fatalf("expected eth0 to have discovered neighbor %v, got %v", neighborAL, neighbors)
	}
	if got := s.Model.IsLinkBridged(eth0, neighborAL, remoteIf); got != datamodel.BridgeNotBridged {
		t.Fatalf("expected link not yet bridged (no bridge-discovery received), got %v", got)
	}
}

func TestHandleCMDUTopologyResponseMergesDeviceInfo(t *testing.T) {
	s := newTestStack(t)
	local := wire.MAC{0x02, 0, 0, 0, 0, 0x01}
	if err := s.Model.SetLocalALMac(local); err != nil {
		t.Fatalf("SetLocalALMac: %v", err)
	}

	senderAL := wire.MAC{0x02, 0, 0, 0, 0, 0x10}
	c := &cmdu.CMDU{
		Header: cmdu.Header{MessageType: cmdu.TypeTopologyResponse},
		TLVs: []tlv.TLV{
			tlv.DeviceInformation{ALMac: senderAL},
			tlv.SupportedService{Services: []tlv.ServiceType{tlv.ServiceTypeMultiAPAgent}},
		},
	}
	if err := s.HandleCMDU(wire.MAC{}, senderAL, c); err != nil {
		t.Fatalf("HandleCMDU: %v", err)
	}

	dev, ok := s.Model.DeviceByALMac(senderAL)
	if !ok {
		t.Fatalf("expected device %v to be cached", senderAL)
	}
	if dev.DeviceInfo == nil || dev.DeviceInfo.ALMac != senderAL {
		t.Fatalf("expected device-information TLV cached")
	}
	if dev.SupportedService == nil || len(dev.SupportedService.Services) != 1 {
		t.Fatalf("expected supported-service TLV cached")
	}
}

func TestHandleCMDULinkMetricResponseMergesMetrics(t *testing.T) {
	s := newTestStack(t)
	senderAL := wire.MAC{0x02, 0, 0, 0, 0, 0x10}
	neighborAL := wire.MAC{0x02, 0, 0, 0, 0, 0x20}
	s.Model.UpdateNetworkDeviceInfo(senderAL, datamodel.DeviceInfoUpdate{DeviceInfo: &tlv.DeviceInformation{ALMac: senderAL}})

	c := &cmdu.CMDU{
		Header: cmdu.Header{MessageType: cmdu.TypeLinkMetricResponse},
		TLVs: []tlv.TLV{
			tlv.TransmitterLinkMetric{LocalALMac: senderAL, NeighborALMac: neighborAL},
		},
	}
	if err := s.HandleCMDU(wire.MAC{}, senderAL, c); err != nil {
		t.Fatalf("HandleCMDU: %v", err)
	}

	dev, ok := s.Model.DeviceByALMac(senderAL)
	if !ok {
		t.Fatalf("expected device to exist")
	}
	if _, ok := dev.TxMetrics[neighborAL]; !ok {
		t.Fatalf("expected transmitter metrics cached against neighbor %v", neighborAL)
	}
}
