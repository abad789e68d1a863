// Package tlv implements the 1905/Multi-AP TLV codec: parse, forge, compare,
// free and visit for every TLV type enumerated in 1905_tlvs.c, plus the
// Multi-AP (Wi-Fi EasyMesh) service/BSS TLVs. Grounded on
// factory/src_independent/1905_tlvs.c, dispatched by a type-indexed
// descriptor table keyed on each TLV's wire type byte.
package tlv

import (
	"errors"
	"fmt"
)

// Type is the 1-byte TLV type discriminator.
type Type byte

// Core 1905.1 TLV types, values from IEEE Std 1905.1-2013 Table 6-12.
const (
	TypeEndOfMessage                        Type = 0x00
	TypeALMacAddress                        Type = 0x01
	TypeMacAddress                          Type = 0x02
	TypeDeviceInformation                   Type = 0x03
	TypeDeviceBridgingCapability             Type = 0x04
	TypeNon1905NeighborDeviceList           Type = 0x06
	TypeNeighborDeviceList                  Type = 0x07
	TypeLinkMetricQuery                     Type = 0x08
	TypeTransmitterLinkMetric               Type = 0x09
	TypeReceiverLinkMetric                  Type = 0x0A
	TypeVendorSpecific                      Type = 0x0B
	TypeLinkMetricResultCode                Type = 0x0C
	TypeSearchedRole                        Type = 0x0D
	TypeAutoconfigFreqBand                  Type = 0x0E
	TypeSupportedRole                       Type = 0x0F
	TypeSupportedFreqBand                   Type = 0x10
	TypeWSC                                 Type = 0x11
	TypePushButtonEventNotification         Type = 0x12
	TypePushButtonJoinNotification          Type = 0x13
	TypeGenericPhyDeviceInformation         Type = 0x14
	TypeDeviceIdentification                Type = 0x15
	TypeControlURL                          Type = 0x16
	TypeIPv4                                Type = 0x17
	TypeIPv6                                Type = 0x18
	TypePushButtonGenericPhyEventNotification Type = 0x19
	Type1905ProfileVersion                  Type = 0x1A
	TypePowerOffInterface                   Type = 0x1B
	TypeInterfacePowerChangeInformation     Type = 0x1C
	TypeInterfacePowerChangeStatus          Type = 0x1D
	TypeL2NeighborDevice                    Type = 0x1E
)

// Multi-AP (Wi-Fi EasyMesh) extension TLV types.
const (
	TypeSupportedService  Type = 0x80
	TypeSearchedService   Type = 0x81
	TypeAPOperationalBSS  Type = 0x83
	TypeAssociatedClients Type = 0x84
)

var typeNames = map[Type]string{
	TypeEndOfMessage:                           "eom",
	TypeALMacAddress:                           "alMacAddress",
	TypeMacAddress:                             "macAddress",
	TypeDeviceInformation:                      "deviceInformation",
	TypeDeviceBridgingCapability:               "deviceBridgingCapability",
	TypeNon1905NeighborDeviceList:              "non1905NeighborDeviceList",
	TypeNeighborDeviceList:                     "neighborDeviceList",
	TypeLinkMetricQuery:                        "linkMetricQuery",
	TypeTransmitterLinkMetric:                  "transmitterLinkMetric",
	TypeReceiverLinkMetric:                     "receiverLinkMetric",
	TypeVendorSpecific:                         "vendorSpecific",
	TypeLinkMetricResultCode:                   "linkMetricResultCode",
	TypeSearchedRole:                           "searchedRole",
	TypeAutoconfigFreqBand:                     "autoconfigFreqBand",
	TypeSupportedRole:                          "supportedRole",
	TypeSupportedFreqBand:                      "supportedFreqBand",
	TypeWSC:                                    "wsc",
	TypePushButtonEventNotification:            "pushButtonEventNotification",
	TypePushButtonJoinNotification:             "pushButtonJoinNotification",
	TypeGenericPhyDeviceInformation:            "genericPhyDeviceInformation",
	TypeDeviceIdentification:                   "deviceIdentification",
	TypeControlURL:                             "controlURL",
	TypeIPv4:                                   "ipv4",
	TypeIPv6:                                   "ipv6",
	TypePushButtonGenericPhyEventNotification:  "pushButtonGenericPhyEventNotification",
	Type1905ProfileVersion:                     "profileVersion",
	TypePowerOffInterface:                      "powerOffInterface",
	TypeInterfacePowerChangeInformation:        "interfacePowerChangeInformation",
	TypeInterfacePowerChangeStatus:             "interfacePowerChangeStatus",
	TypeL2NeighborDevice:                       "l2NeighborDevice",
	TypeSupportedService:                       "supportedService",
	TypeSearchedService:                        "searchedService",
	TypeAPOperationalBSS:                       "apOperationalBSS",
	TypeAssociatedClients:                      "associatedClients",
}

// String renders the TLV type name for diagnostics, e.g. "TLV<linkMetricQuery,0x08>".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return fmt.Sprintf("TLV<%s,0x%02X>", name, byte(t))
	}
	return fmt.Sprintf("TLV<unknown,0x%02X>", byte(t))
}

// Errors returned by Parse/Forge across all TLV variants.
var (
	ErrShortBuffer       = errors.New("tlv: buffer shorter than declared length")
	ErrLengthMismatch    = errors.New("tlv: declared length does not match bytes consumed")
	ErrUnknownType       = errors.New("tlv: unknown TLV type")
	ErrBadMediaType      = errors.New("tlv: media-specific payload length mismatch for media type")
	ErrTooLong           = errors.New("tlv: forged TLV exceeds maximum representable length")
)

// MaxBodyLen is the largest body a TLV can carry (2-byte length field).
const MaxBodyLen = 0xFFFF

// TLV is the common interface implemented by every TLV variant's structure.
type TLV interface {
	// Type returns the 1-byte type discriminator.
	Type() Type
	// forgeBody serializes the TLV's body (without the type+length header).
	forgeBody(opts ForgeOptions) ([]byte, error)
}

// ParseOptions controls interop relaxations during Parse.
type ParseOptions struct {
	// FixBrokenTLVs accepts legacy zero-length encodings of "list with zero
	// elements" TLVs as an empty list rather than rejecting them. Mirrors
	// the FIX_BROKEN_TLVS compile-time flag from 1905_tlvs.c.
	FixBrokenTLVs bool
}

// ForgeOptions controls interop behavior during Forge. Currently empty;
// kept symmetric with ParseOptions so call sites read the same way.
type ForgeOptions struct{}

// Free releases any resources owned by a TLV. Go's garbage collector makes
// this a no-op in practice; the method exists so code that ports the
// original's "free old TLV before installing the new one" ownership pattern
// (see datamodel) has a single spelling to call, and so a future variant
// holding non-GC'd resources (e.g. a pooled buffer) has somewhere to release
// them.
func Free(t TLV) {
	_ = t
}
