package tlv

import (
	"bytes"
	"testing"

	"github.com/broadband-mesh/al1905/wire"
)

func mac(b byte) wire.MAC {
	return wire.MAC{0x02, 0x00, 0x00, 0x00, 0x00, b}
}

func roundTrip(t *testing.T, v TLV) TLV {
	t.Helper()
	forged, err := Forge(v, ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	parsed, n, err := Parse(forged, ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(forged) {
		t.Fatalf("Parse consumed %d of %d bytes", n, len(forged))
	}
	if !Compare(v, parsed) {
		t.Fatalf("round trip mismatch:\n  want %#v\n  got  %#v", v, parsed)
	}
	return parsed
}

func TestRoundTripPrimitives(t *testing.T) {
	roundTrip(t, ALMacAddress{MAC: mac(1)})
	roundTrip(t, MacAddress{MAC: mac(2)})
	roundTrip(t, SearchedRole{Role: RoleRegistrar})
	roundTrip(t, SupportedRole{Role: RoleRegistrar})
	roundTrip(t, AutoconfigFreqBand{Band: FreqBand5GHz})
	roundTrip(t, SupportedFreqBand{Band: FreqBand24GHz})
	roundTrip(t, LinkMetricResultCode{Code: ResultCodeInvalidNeighbor})
	roundTrip(t, ProfileVersion{Version: Profile1905_1a})
	roundTrip(t, DeviceIdentification{FriendlyName: "repeater", ManufacturerName: "acme", ModelName: "rx1"})
	roundTrip(t, ControlURL{URL: "http://10.0.0.1/wps"})
	roundTrip(t, WSC{Body: []byte{0x10, 0x4A, 0x00, 0x01, 0x10}})
	roundTrip(t, VendorSpecific{OUI: [3]byte{0x00, 0x25, 0x6D}, Body: []byte{0xAA, 0xBB}})
}

func TestRoundTripDeviceInformation(t *testing.T) {
	di := DeviceInformation{
		ALMac: mac(1),
		Interfaces: []LocalInterfaceEntry{
			{MAC: mac(2), MediaType: MediaTypeIEEE802_3ab_GigabitEthernet},
			{
				MAC:       mac(3),
				MediaType: MediaTypeIEEE802_11ac_5GHz,
				WifiSpecific: &WifiMediaSpecific{
					BSSID:           mac(4),
					Role:            WifiRoleAP,
					RegulatoryClass: 115,
					Channel:         36,
				},
			},
		},
	}
	roundTrip(t, di)
}

func TestRoundTripBridgingAndNeighbors(t *testing.T) {
	roundTrip(t, DeviceBridgingCapability{Tuples: []BridgingTuple{{MACs: []wire.MAC{mac(1), mac(2)}}}})
	roundTrip(t, Non1905NeighborDeviceList{LocalMAC: mac(1), Neighbors: []Non1905NeighborEntry{{MAC: mac(9)}}})
	roundTrip(t, NeighborDeviceList{LocalMAC: mac(1), Neighbors: []NeighborEntry{
		{ALMac: mac(5), BridgesIEEE1905: true},
		{ALMac: mac(6), BridgesIEEE1905: false},
	}})
}

func TestRoundTripLinkMetrics(t *testing.T) {
	roundTrip(t, LinkMetricQuery{Destination: DestinationSpecificNeighbor, NeighborMAC: mac(7), MetricsType: LinkMetricsBoth})
	roundTrip(t, TransmitterLinkMetric{
		LocalALMac: mac(1), NeighborALMac: mac(2),
		Links: []TransmitterLinkEntry{{
			Link:                  LinkMetricLinkEntry{LocalMAC: mac(3), RemoteMAC: mac(4), MediaType: MediaTypeIEEE802_3u_FastEthernet, BridgesIEEE1905: true},
			PacketErrors:          1,
			TransmittedPackets:    2,
			MACThroughputCapacity: 3,
			LinkAvailability:      4,
			PHYRate:               5,
		}},
	})
	roundTrip(t, ReceiverLinkMetric{
		LocalALMac: mac(1), NeighborALMac: mac(2),
		Links: []ReceiverLinkEntry{{
			Link:            LinkMetricLinkEntry{LocalMAC: mac(3), RemoteMAC: mac(4)},
			PacketErrors:    1,
			ReceivedPackets: 2,
			RSSI:            200,
		}},
	})
}

// TestLinkMetricQueryAllNeighborsWireFormat verifies the documented interop
// quirk: scenario S2's "query link metrics to all neighbors, both
// directions" forges to 08 00 08 00 02 00 00 00 00 00 02.
func TestLinkMetricQueryAllNeighborsWireFormat(t *testing.T) {
	q := LinkMetricQuery{Destination: DestinationAllNeighbors, MetricsType: LinkMetricsBoth}
	got, err := Forge(q, ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	want := []byte{0x08, 0x00, 0x08, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestRoundTripPushButton(t *testing.T) {
	roundTrip(t, PushButtonEventNotification{Media: []MediaTypeEntry{
		{MediaType: MediaTypeIEEE802_3u_FastEthernet},
		{MediaType: MediaTypeIEEE802_11n_5GHz, WifiSpecific: &WifiMediaSpecific{BSSID: mac(1), Role: WifiRoleSTA}},
	}})
	roundTrip(t, PushButtonJoinNotification{ALMac: mac(1), MAC: mac(2), TransactionID: 0xBEEF, NewMAC: mac(3)})
	roundTrip(t, PushButtonGenericPhyEventNotification{Entries: []GenericPhyPushButtonEntry{
		{OUI: [3]byte{1, 2, 3}, VariantIndex: 1, SpecificInfo: []byte{9, 9}},
	}})
}

func TestRoundTripGenericPhy(t *testing.T) {
	roundTrip(t, GenericPhyDeviceInformation{
		ALMac: mac(1),
		Interfaces: []GenericPhyInterfaceEntry{{
			MAC:          mac(2),
			OUI:          [3]byte{0x00, 0x19, 0xA7},
			VariantIndex: 1,
			VariantName:  "MoCA 2.0",
			XMLURL:       "http://10.0.0.1/phy.xml",
			SpecificInfo: []byte{1, 2, 3},
		}},
	})
}

func TestRoundTripIPv4IPv6(t *testing.T) {
	roundTrip(t, IPv4{Interfaces: []IPv4Interface{{
		MAC: mac(1),
		Addresses: []IPv4Address{
			{Type: IPAddrTypeDHCP, Address: [4]byte{192, 168, 1, 10}, DHCPServer: [4]byte{192, 168, 1, 1}},
		},
	}}})
	roundTrip(t, IPv6{Interfaces: []IPv6Interface{{
		MAC:       mac(1),
		LinkLocal: [16]byte{0xfe, 0x80},
		Addresses: []IPv6Address{
			{Type: IPAddrTypeSLAAC, Address: [16]byte{0x20, 0x01}, Origin: [16]byte{0xfe, 0x80}},
		},
	}}})
}

func TestRoundTripPowerChange(t *testing.T) {
	roundTrip(t, PowerOffInterface{Interfaces: []PowerOffInterfaceEntry{
		{MAC: mac(1), MediaType: MediaTypeIEEE802_3u_FastEthernet},
	}})
	roundTrip(t, InterfacePowerChangeInformation{Interfaces: []InterfacePowerChangeEntry{
		{MAC: mac(1), Request: PowerChangeRequestOff},
	}})
	roundTrip(t, InterfacePowerChangeStatus{Interfaces: []InterfacePowerChangeStatusEntry{
		{MAC: mac(1), Status: PowerChangeStatusCompleted},
	}})
}

func TestRoundTripL2NeighborDevice(t *testing.T) {
	roundTrip(t, L2NeighborDevice{Interfaces: []L2NeighborInterfaceEntry{{
		MAC: mac(1),
		Neighbors: []L2NeighborEntry{{
			MAC:        mac(2),
			BehindMACs: []wire.MAC{mac(3), mac(4)},
		}},
	}}})
}

func TestRoundTripMultiAP(t *testing.T) {
	roundTrip(t, SupportedService{Services: []ServiceType{ServiceTypeMultiAPAgent}})
	roundTrip(t, SearchedService{Services: []ServiceType{ServiceTypeMultiAPController}})
	roundTrip(t, APOperationalBSS{Radios: []APOperationalRadioEntry{{
		RadioID: mac(1),
		BSSes:   []APOperationalBSSEntry{{BSSID: mac(2), SSID: "mesh-5g"}},
	}}})
	roundTrip(t, AssociatedClients{BSSes: []AssociatedClientsBSSEntry{{
		BSSID:   mac(2),
		Clients: []AssociatedClientEntry{{MAC: mac(9), SecondsSinceAssoc: 42}},
	}}})
}

func TestForgeLengthInvariant(t *testing.T) {
	v := DeviceIdentification{FriendlyName: "x"}
	forged, err := Forge(v, ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	if len(forged) < 3 {
		t.Fatalf("forged TLV too short to hold a header: %d bytes", len(forged))
	}
	declared := int(wire.NetworkOrder.Uint16(forged[1:3]))
	if declared != len(forged)-3 {
		t.Fatalf("declared length %d does not match body length %d", declared, len(forged)-3)
	}
}

func TestParseRejectsShortBuffer(t *testing.T) {
	_, _, err := Parse([]byte{0x01, 0x00, 0x06, 0x00, 0x00}, ParseOptions{})
	if err == nil {
		t.Fatalf("expected error parsing a truncated TLV")
	}
}

func TestFixBrokenTLVsAcceptsEmptyLists(t *testing.T) {
	header := []byte{byte(TypeDeviceBridgingCapability), 0x00, 0x00}
	if _, _, err := Parse(header, ParseOptions{FixBrokenTLVs: false}); err == nil {
		t.Fatalf("expected a zero-length body to be rejected without FixBrokenTLVs")
	}
	parsed, _, err := Parse(header, ParseOptions{FixBrokenTLVs: true})
	if err != nil {
		t.Fatalf("Parse with FixBrokenTLVs: %v", err)
	}
	if dbc, ok := parsed.(DeviceBridgingCapability); !ok || len(dbc.Tuples) != 0 {
		t.Fatalf("expected empty DeviceBridgingCapability, got %#v", parsed)
	}
}

func TestFixBrokenTLVsDoesNotRelaxNeighborDeviceLists(t *testing.T) {
	// Non1905NeighborDeviceList and NeighborDeviceList are not among the
	// nine TLV types the FIX_BROKEN_TLVS quirk applies to: their bodies
	// always carry a leading MAC, so a zero-length body is malformed
	// regardless of the flag.
	for _, typ := range []Type{TypeNon1905NeighborDeviceList, TypeNeighborDeviceList} {
		header := []byte{byte(typ), 0x00, 0x00}
		if _, _, err := Parse(header, ParseOptions{FixBrokenTLVs: true}); err == nil {
			t.Fatalf("expected a zero-length body for %v to be rejected even with FixBrokenTLVs", typ)
		}
	}
}

func TestVisitWalksNestedFields(t *testing.T) {
	di := DeviceInformation{
		ALMac:      mac(1),
		Interfaces: []LocalInterfaceEntry{{MAC: mac(2), MediaType: MediaTypeIEEE802_3u_FastEthernet}},
	}
	var names []string
	Visit(di, func(name, format string, value interface{}) {
		names = append(names, name)
	})
	if len(names) == 0 {
		t.Fatalf("Visit produced no fields")
	}
	found := false
	for _, n := range names {
		if n == "ALMac" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Visit did not report top-level field ALMac, got %v", names)
	}
}

func TestCompareRejectsDifferentTypes(t *testing.T) {
	if Compare(ALMacAddress{MAC: mac(1)}, MacAddress{MAC: mac(1)}) {
		t.Fatalf("Compare should not equate different TLV types")
	}
}

func TestNameAndIsRegistered(t *testing.T) {
	if !IsRegistered(TypeDeviceInformation) {
		t.Fatalf("TypeDeviceInformation should be registered")
	}
	if IsRegistered(Type(0x7F)) {
		t.Fatalf("0x7F should not be a registered type")
	}
	if Name(TypeAssociatedClients) != "associatedClients" {
		t.Fatalf("unexpected name for TypeAssociatedClients: %q", Name(TypeAssociatedClients))
	}
}
