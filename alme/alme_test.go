package alme

import (
	"testing"

	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

func mac(b byte) wire.MAC { return wire.MAC{0x02, 0, 0, 0, 0, b} }

func roundTripRequest(t *testing.T, p Primitive) {
	t.Helper()
	forged, err := Forge(p)
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	got, err := ParseRequest(forged)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if !Compare(p, got) {
		t.Fatalf("round trip mismatch: want %#v, got %#v", p, got)
	}
}

func roundTripResponse(t *testing.T, p Primitive) {
	t.Helper()
	forged, err := Forge(p)
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	got, err := ParseResponse(forged)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !Compare(p, got) {
		t.Fatalf("round trip mismatch: want %#v, got %#v", p, got)
	}
}

func TestRoundTripIntfList(t *testing.T) {
	roundTripRequest(t, GetIntfListRequest{})
	roundTripResponse(t, GetIntfListResponse{Interfaces: []InterfaceDescriptor{
		{MAC: mac(1), MediaType: 0x0100, Bridged: true, VendorInfo: []VendorInfoEntry{
			{IEType: 0xDD, OUI: [3]byte{0x00, 0x25, 0x6D}, Body: []byte{1, 2}},
		}},
	}})
}

func TestRoundTripPwrState(t *testing.T) {
	roundTripRequest(t, SetIntfPwrStateRequest{InterfaceAddress: mac(1), PowerState: PowerStateOff})
	roundTripResponse(t, SetIntfPwrStateConfirm{InterfaceAddress: mac(1), ReasonCode: 0})
	roundTripRequest(t, GetIntfPwrStateRequest{InterfaceAddress: mac(1)})
	roundTripResponse(t, GetIntfPwrStateResponse{InterfaceAddress: mac(1), PowerState: PowerStateOn})
}

func TestRoundTripFwdRules(t *testing.T) {
	c := Classification{MacDA: mac(1), MacDAFlag: true, EtherType: 0x893a, EtherTypeFlag: true, VID: 0xABC, VIDFlag: true, PCP: 5, PCPFlag: true}
	roundTripRequest(t, SetFwdRuleRequest{Classification: c, Addresses: []wire.MAC{mac(2), mac(3)}})
	roundTripResponse(t, SetFwdRuleConfirm{RuleID: 7, ReasonCode: 0})
	roundTripRequest(t, GetFwdRulesRequest{})
	roundTripResponse(t, GetFwdRulesResponse{Rules: []FwdRuleEntry{{Classification: c, Addresses: []wire.MAC{mac(4)}, LastMatched: 42}}})
	roundTripRequest(t, ModifyFwdRuleRequest{RuleID: 7, Addresses: []wire.MAC{mac(5)}})
	roundTripResponse(t, ModifyFwdRuleConfirm{RuleID: 7, ReasonCode: 0})
	roundTripRequest(t, RemoveFwdRuleRequest{RuleID: 7})
	roundTripResponse(t, RemoveFwdRuleConfirm{RuleID: 7, ReasonCode: 0})
}

func TestRoundTripGetMetric(t *testing.T) {
	roundTripRequest(t, GetMetricRequest{InterfaceAddress: mac(1)})
	roundTripResponse(t, GetMetricResponse{Metrics: []MetricEntry{{
		NeighborDevAddress: mac(1),
		LocalIntfAddress:   mac(2),
		Bridged:            true,
		Transmitter: tlv.TransmitterLinkMetric{
			LocalALMac: mac(3), NeighborALMac: mac(4),
			Links: []tlv.TransmitterLinkEntry{{Link: tlv.LinkMetricLinkEntry{LocalMAC: mac(5), RemoteMAC: mac(6)}}},
		},
		Receiver: tlv.ReceiverLinkMetric{
			LocalALMac: mac(3), NeighborALMac: mac(4),
			Links: []tlv.ReceiverLinkEntry{{Link: tlv.LinkMetricLinkEntry{LocalMAC: mac(5), RemoteMAC: mac(6)}}},
		},
	}}})
}

func TestCustomCommandSharesTypeByte(t *testing.T) {
	req := CustomCommandRequest{Command: 0x03}
	forged, err := Forge(req)
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	got, err := ParseRequest(forged)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got.(CustomCommandRequest).Command != 0x03 {
		t.Fatalf("request round trip mismatch: %#v", got)
	}

	resp := CustomCommandResponse{Data: []byte{0xAA, 0xBB, 0xCC}}
	forged, err = Forge(resp)
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	gotResp, err := ParseResponse(forged)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !Compare(resp, gotResp) {
		t.Fatalf("response round trip mismatch: want %#v, got %#v", resp, gotResp)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	if _, err := ParseRequest([]byte{0x7F}); err != ErrUnknownType {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
