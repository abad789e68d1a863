// Package cmdu implements Control Message Data Unit assembly and
// disassembly: per-fragment framing, reassembly (fragments may arrive out
// of order), per-message-type relay-indicator and TLV-cardinality rules,
// and greedy fragmentation on send.
//
// Grounded on 1905_cmdus.c/1905_cmdus.h, layered on the tlv package the
// same way a transport frame layers header fields over an opaque payload.
package cmdu

import (
	"errors"

	"github.com/broadband-mesh/al1905/tlv"
)

// MessageType is the 2-byte CMDU message-type code (IEEE 1905.1).
type MessageType uint16

const (
	TypeTopologyDiscovery             MessageType = 0x0000
	TypeTopologyNotification          MessageType = 0x0001
	TypeTopologyQuery                 MessageType = 0x0002
	TypeTopologyResponse              MessageType = 0x0003
	TypeVendorSpecific                MessageType = 0x0004
	TypeLinkMetricQuery               MessageType = 0x0005
	TypeLinkMetricResponse            MessageType = 0x0006
	TypeAPAutoconfigSearch            MessageType = 0x0007
	TypeAPAutoconfigResponse          MessageType = 0x0008
	TypeAPAutoconfigWSC               MessageType = 0x0009
	TypeAPAutoconfigRenew             MessageType = 0x000A
	TypePushButtonEventNotification   MessageType = 0x0B
	TypePushButtonJoinNotification    MessageType = 0x0C
	TypeHigherLayerQuery              MessageType = 0x0D
	TypeHigherLayerResponse           MessageType = 0x0E
	TypeInterfacePowerChangeRequest   MessageType = 0x0F
	TypeInterfacePowerChangeResponse  MessageType = 0x10
	TypeGenericPhyQuery               MessageType = 0x11
	TypeGenericPhyResponse            MessageType = 0x12
)

// Version is the only 1905 message version this codec speaks.
const Version byte = 0

// Indicator bit positions within the CMDU header's 1-byte indicators field.
const (
	indicatorLastFragment = 1 << 7
	indicatorRelay        = 1 << 6
)

// Header is the fixed 8-byte CMDU header common to every fragment.
type Header struct {
	MessageType   MessageType
	MessageID     uint16
	FragmentID    byte
	LastFragment  bool
	Relay         bool
}

// CMDU is a fully reassembled, rule-checked message: its header plus the
// ordered list of TLVs carried across all fragments (the end-of-message
// TLV is not included; it is implicit).
type CMDU struct {
	Header Header
	TLVs   []tlv.TLV
}

// Errors returned by Parse/Forge.
var (
	ErrNoFragments        = errors.New("cmdu: no fragments supplied")
	ErrMissingFragmentZero = errors.New("cmdu: no fragment with fragment_id == 0")
	ErrHeaderMismatch     = errors.New("cmdu: fragments disagree on version/type/id/relay")
	ErrLastFragmentFlag   = errors.New("cmdu: last_fragment_indicator not set exactly on the highest fragment_id")
	ErrDuplicateFragment  = errors.New("cmdu: duplicate fragment_id")
	ErrMissingEOM         = errors.New("cmdu: fragment ended without an end-of-message TLV")
	ErrUnknownMessageType = errors.New("cmdu: unrecognized message type")
	ErrMissingRequiredTLV = errors.New("cmdu: missing a required TLV for this message type")
	ErrRepeatedRequiredTLV = errors.New("cmdu: a required-exactly-once TLV appears more than once")
	ErrUnexpectedTLV      = errors.New("cmdu: TLV type not allowed for this message type")
	ErrVendorMustLeadVendorCMDU = errors.New("cmdu: vendor-specific CMDU must begin with a vendor-specific TLV")
	ErrTLVTooLargeForFragment = errors.New("cmdu: a single TLV exceeds the fragment size bound")
)

// rule describes, for one message type, whether relaying is fixed (and to
// what value) and which TLV types are required-exactly-once vs.
// allowed-zero-or-more.
type rule struct {
	fixedRelay    *bool // nil => either value accepted/preserved (vendor-specific)
	required      []tlv.Type
	allowed       []tlv.Type
	vendorLeading bool
}

func boolPtr(b bool) *bool { return &b }

var rules = map[MessageType]rule{
	TypeTopologyDiscovery: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeALMacAddress, tlv.TypeMacAddress},
	},
	TypeTopologyNotification: {
		fixedRelay: boolPtr(true),
		required:   []tlv.Type{tlv.TypeALMacAddress},
	},
	TypeTopologyQuery: {
		fixedRelay: boolPtr(false),
	},
	TypeTopologyResponse: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeDeviceInformation},
		allowed: []tlv.Type{
			tlv.TypeDeviceBridgingCapability,
			tlv.TypeNon1905NeighborDeviceList,
			tlv.TypeNeighborDeviceList,
			tlv.TypePowerOffInterface,
			tlv.TypeL2NeighborDevice,
			tlv.TypeSupportedService,
			tlv.TypeAPOperationalBSS,
			tlv.TypeAssociatedClients,
		},
	},
	TypeVendorSpecific: {
		fixedRelay:    nil,
		vendorLeading: true,
	},
	TypeLinkMetricQuery: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeLinkMetricQuery},
	},
	TypeLinkMetricResponse: {
		fixedRelay: boolPtr(false),
		allowed:    []tlv.Type{tlv.TypeTransmitterLinkMetric, tlv.TypeReceiverLinkMetric, tlv.TypeLinkMetricResultCode},
	},
	TypeAPAutoconfigSearch: {
		fixedRelay: boolPtr(true),
		required:   []tlv.Type{tlv.TypeALMacAddress, tlv.TypeSearchedRole, tlv.TypeAutoconfigFreqBand},
		allowed:    []tlv.Type{tlv.TypeSearchedService},
	},
	TypeAPAutoconfigResponse: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeSupportedRole, tlv.TypeSupportedFreqBand},
		allowed:    []tlv.Type{tlv.TypeSupportedService},
	},
	TypeAPAutoconfigWSC: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeWSC},
	},
	TypeAPAutoconfigRenew: {
		fixedRelay: boolPtr(true),
		required:   []tlv.Type{tlv.TypeALMacAddress, tlv.TypeSupportedRole, tlv.TypeSupportedFreqBand},
	},
	TypePushButtonEventNotification: {
		fixedRelay: boolPtr(true),
		required:   []tlv.Type{tlv.TypeALMacAddress, tlv.TypePushButtonEventNotification},
		allowed:    []tlv.Type{tlv.TypePushButtonGenericPhyEventNotification},
	},
	TypePushButtonJoinNotification: {
		fixedRelay: boolPtr(true),
		required:   []tlv.Type{tlv.TypeALMacAddress, tlv.TypePushButtonJoinNotification},
	},
	TypeHigherLayerQuery: {
		fixedRelay: boolPtr(false),
	},
	TypeHigherLayerResponse: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeALMacAddress, tlv.Type1905ProfileVersion, tlv.TypeDeviceIdentification},
		allowed:    []tlv.Type{tlv.TypeControlURL, tlv.TypeIPv4, tlv.TypeIPv6},
	},
	TypeInterfacePowerChangeRequest: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeInterfacePowerChangeInformation},
	},
	TypeInterfacePowerChangeResponse: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeInterfacePowerChangeStatus},
	},
	TypeGenericPhyQuery: {
		fixedRelay: boolPtr(false),
	},
	TypeGenericPhyResponse: {
		fixedRelay: boolPtr(false),
		required:   []tlv.Type{tlv.TypeGenericPhyDeviceInformation},
	},
}

func allowSet(r rule) map[tlv.Type]bool {
	set := make(map[tlv.Type]bool, len(r.required)+len(r.allowed))
	for _, t := range r.required {
		set[t] = true
	}
	for _, t := range r.allowed {
		set[t] = true
	}
	return set
}
