package cmdu

import (
	"testing"

	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

func mac(b byte) wire.MAC { return wire.MAC{0x02, 0, 0, 0, 0, b} }

func TestRoundTripTopologyDiscovery(t *testing.T) {
	c := CMDU{
		Header: Header{MessageType: TypeTopologyDiscovery, MessageID: 7},
		TLVs: []tlv.TLV{
			tlv.ALMacAddress{MAC: mac(1)},
			tlv.MacAddress{MAC: mac(2)},
		},
	}
	fragments, err := Forge(c, 1500, tlv.ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(fragments))
	}
	got, err := Parse(fragments, tlv.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Header.MessageType != c.Header.MessageType || got.Header.MessageID != c.Header.MessageID {
		t.Fatalf("header mismatch: %+v", got.Header)
	}
	if len(got.TLVs) != 2 {
		t.Fatalf("expected 2 TLVs, got %d", len(got.TLVs))
	}
}

// TestFragmentationBoundary mirrors scenario S3: enough neighbor-device-list
// TLVs that the total payload must split across multiple fragments, each
// bounded by maxSegmentSize, with last_fragment_indicator set on exactly
// the final one, and reassembly recovering every TLV.
func TestFragmentationBoundary(t *testing.T) {
	tlvs := []tlv.TLV{tlv.DeviceInformation{ALMac: mac(1)}}
	for i := 0; i < 200; i++ {
		tlvs = append(tlvs, tlv.NeighborDeviceList{
			LocalMAC:  mac(byte(i % 256)),
			Neighbors: []tlv.NeighborEntry{{ALMac: mac(byte((i + 1) % 256))}},
		})
	}
	c := CMDU{
		Header: Header{MessageType: TypeTopologyResponse, MessageID: 1},
		TLVs:   tlvs,
	}
	const segmentSize = 1500
	fragments, err := Forge(c, segmentSize, tlv.ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	if len(fragments) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(fragments))
	}
	for i, f := range fragments {
		if len(f) > segmentSize {
			t.Fatalf("fragment %d exceeds segment size: %d bytes", i, len(f))
		}
		last := f[7]&indicatorLastFragment != 0
		if (i == len(fragments)-1) != last {
			t.Fatalf("fragment %d has unexpected last-fragment bit", i)
		}
	}
	got, err := Parse(fragments, tlv.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.TLVs) != len(tlvs) {
		t.Fatalf("expected %d reassembled TLVs, got %d", len(tlvs), len(got.TLVs))
	}
}

// TestRuleTrimmingOnReceive mirrors scenario S4: an unexpected TLV is
// silently dropped on parse rather than rejecting the whole CMDU.
func TestRuleTrimmingOnReceive(t *testing.T) {
	c := CMDU{
		Header: Header{MessageType: TypeTopologyQuery, MessageID: 3},
	}
	fragments, err := Forge(c, 1500, tlv.ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	// Splice in an unexpected TLV (searched-role) by hand, simulating a
	// peer that sent more than this message type allows.
	extra, _ := tlv.Forge(tlv.SearchedRole{Role: tlv.RoleRegistrar}, tlv.ForgeOptions{})
	eomLen := 3
	body := fragments[0]
	spliced := append(append(append([]byte{}, body[:len(body)-eomLen]...), extra...), body[len(body)-eomLen:]...)

	got, err := Parse([][]byte{spliced}, tlv.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.TLVs) != 0 {
		t.Fatalf("expected the unexpected TLV to be dropped, got %d TLVs", len(got.TLVs))
	}
}

func TestForgeRejectsUnexpectedTLV(t *testing.T) {
	c := CMDU{
		Header: Header{MessageType: TypeTopologyQuery, MessageID: 3},
		TLVs:   []tlv.TLV{tlv.SearchedRole{Role: tlv.RoleRegistrar}},
	}
	if _, err := Forge(c, 1500, tlv.ForgeOptions{}); err != ErrUnexpectedTLV {
		t.Fatalf("expected ErrUnexpectedTLV, got %v", err)
	}
}

func TestForgeRejectsMissingRequiredTLV(t *testing.T) {
	c := CMDU{Header: Header{MessageType: TypeTopologyDiscovery, MessageID: 1}}
	if _, err := Forge(c, 1500, tlv.ForgeOptions{}); err != ErrMissingRequiredTLV {
		t.Fatalf("expected ErrMissingRequiredTLV, got %v", err)
	}
}

// TestRulesRequireALMacAddress covers the four message types whose
// required-exactly-once set includes the AL-MAC-Address TLV alongside
// their other required TLVs: omitting it must reject on Forge, and a
// peer that sends it must have it preserved (not dropped) on Parse.
func TestRulesRequireALMacAddress(t *testing.T) {
	cases := []struct {
		name string
		full CMDU
	}{
		{
			name: "ap-autoconfig-search",
			full: CMDU{
				Header: Header{MessageType: TypeAPAutoconfigSearch, MessageID: 1},
				TLVs: []tlv.TLV{
					tlv.ALMacAddress{MAC: mac(1)},
					tlv.SearchedRole{Role: tlv.RoleRegistrar},
					tlv.AutoconfigFreqBand{},
				},
			},
		},
		{
			name: "push-button-event-notification",
			full: CMDU{
				Header: Header{MessageType: TypePushButtonEventNotification, MessageID: 1},
				TLVs: []tlv.TLV{
					tlv.ALMacAddress{MAC: mac(1)},
					tlv.PushButtonEventNotification{},
				},
			},
		},
		{
			name: "push-button-join-notification",
			full: CMDU{
				Header: Header{MessageType: TypePushButtonJoinNotification, MessageID: 1},
				TLVs: []tlv.TLV{
					tlv.ALMacAddress{MAC: mac(1)},
					tlv.PushButtonJoinNotification{},
				},
			},
		},
		{
			name: "higher-layer-response",
			full: CMDU{
				Header: Header{MessageType: TypeHigherLayerResponse, MessageID: 1},
				TLVs: []tlv.TLV{
					tlv.ALMacAddress{MAC: mac(1)},
					tlv.ProfileVersion{},
					tlv.DeviceIdentification{},
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fragments, err := Forge(tc.full, 1500, tlv.ForgeOptions{})
			if err != nil {
				t.Fatalf("Forge with AL-MAC present: %v", err)
			}
			got, err := Parse(fragments, tlv.ParseOptions{})
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			found := false
			for _, v := range got.TLVs {
				if _, ok := v.(tlv.ALMacAddress); ok {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected AL-MAC-Address TLV preserved after Parse, got %+v", got.TLVs)
			}

			// Without the AL-MAC-Address TLV, Forge must reject.
			withoutALMac := CMDU{Header: tc.full.Header, TLVs: tc.full.TLVs[1:]}
			if _, err := Forge(withoutALMac, 1500, tlv.ForgeOptions{}); err != ErrMissingRequiredTLV {
				t.Fatalf("expected ErrMissingRequiredTLV without AL-MAC-Address, got %v", err)
			}
		})
	}
}

func TestPushButtonEventNotificationAllowsGenericPhyEvent(t *testing.T) {
	c := CMDU{
		Header: Header{MessageType: TypePushButtonEventNotification, MessageID: 1},
		TLVs: []tlv.TLV{
			tlv.ALMacAddress{MAC: mac(1)},
			tlv.PushButtonEventNotification{},
			tlv.PushButtonGenericPhyEventNotification{},
		},
	}
	if _, err := Forge(c, 1500, tlv.ForgeOptions{}); err != nil {
		t.Fatalf("expected push-button-generic-phy-event-notification to be allowed, got %v", err)
	}
}

func TestHigherLayerResponseRequiresProfileVersionAndDeviceIdentification(t *testing.T) {
	c := CMDU{
		Header: Header{MessageType: TypeHigherLayerResponse, MessageID: 1},
		TLVs: []tlv.TLV{
			tlv.ALMacAddress{MAC: mac(1)},
			tlv.DeviceIdentification{},
		},
	}
	if _, err := Forge(c, 1500, tlv.ForgeOptions{}); err != ErrMissingRequiredTLV {
		t.Fatalf("expected ErrMissingRequiredTLV without profile-version, got %v", err)
	}
}

func TestParseReordersFragments(t *testing.T) {
	tlvs := []tlv.TLV{tlv.DeviceInformation{ALMac: mac(1)}}
	for i := 0; i < 200; i++ {
		tlvs = append(tlvs, tlv.NeighborDeviceList{
			LocalMAC:  mac(byte(i % 256)),
			Neighbors: []tlv.NeighborEntry{{ALMac: mac(byte((i + 1) % 256))}},
		})
	}
	c := CMDU{
		Header: Header{MessageType: TypeTopologyResponse, MessageID: 9},
		TLVs:   tlvs,
	}
	fragments, err := Forge(c, 1500, tlv.ForgeOptions{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}
	if len(fragments) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(fragments))
	}
	// Hand the fragments to Parse in reverse order.
	reversed := make([][]byte, len(fragments))
	for i, f := range fragments {
		reversed[len(fragments)-1-i] = f
	}
	got, err := Parse(reversed, tlv.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.TLVs) != len(tlvs) {
		t.Fatalf("expected %d reassembled TLVs, got %d", len(tlvs), len(got.TLVs))
	}
	if _, ok := got.TLVs[0].(tlv.DeviceInformation); !ok {
		t.Fatalf("expected fragment 0's device-information TLV first after reordering, got %T", got.TLVs[0])
	}
}
