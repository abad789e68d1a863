package tlv

import (
	"github.com/broadband-mesh/al1905/wire"
)

func init() {
	register(TypeEndOfMessage, parseEndOfMessage)
	register(TypeALMacAddress, parseALMacAddress)
	register(TypeMacAddress, parseMacAddress)
	register(TypeSearchedRole, parseSearchedRole)
	register(TypeSupportedRole, parseSupportedRole)
	register(TypeAutoconfigFreqBand, parseAutoconfigFreqBand)
	register(TypeSupportedFreqBand, parseSupportedFreqBand)
	register(TypeLinkMetricResultCode, parseLinkMetricResultCode)
	register(Type1905ProfileVersion, parseProfileVersion)
	register(TypeDeviceIdentification, parseDeviceIdentification)
	register(TypeControlURL, parseControlURL)
	register(TypeWSC, parseWSC)
	register(TypeVendorSpecific, parseVendorSpecific)
}

// EndOfMessage marks the end of a CMDU's TLV list. It never appears in a
// CMDU structure's TLV slice: it is synthesized on forge and consumed
// silently on parse.
type EndOfMessage struct{}

func (EndOfMessage) Type() Type { return TypeEndOfMessage }
func (EndOfMessage) forgeBody(ForgeOptions) ([]byte, error) { return nil, nil }

func parseEndOfMessage(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 0 {
		return nil, ErrLengthMismatch
	}
	return EndOfMessage{}, nil
}

// Role is the 1-byte 1905 role enumeration used by SearchedRole/SupportedRole.
type Role byte

// RoleRegistrar is the only role value defined by the standard.
const RoleRegistrar Role = 0x00

// ALMacAddress carries the AL MAC address of the sender.
type ALMacAddress struct {
	MAC wire.MAC
}

func (ALMacAddress) Type() Type { return TypeALMacAddress }
func (t ALMacAddress) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(wire.MACLen)
	w.MAC(t.MAC)
	return w.Bytes(), nil
}

func parseALMacAddress(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != wire.MACLen {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	return ALMacAddress{MAC: mac}, nil
}

// MacAddress carries the MAC address of the local interface the CMDU was
// sent from.
type MacAddress struct {
	MAC wire.MAC
}

func (MacAddress) Type() Type { return TypeMacAddress }
func (t MacAddress) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(wire.MACLen)
	w.MAC(t.MAC)
	return w.Bytes(), nil
}

func parseMacAddress(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != wire.MACLen {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	return MacAddress{MAC: mac}, nil
}

// SearchedRole advertises the role a controller searches for (always
// RoleRegistrar today, per the standard).
type SearchedRole struct {
	Role Role
}

func (SearchedRole) Type() Type { return TypeSearchedRole }
func (t SearchedRole) forgeBody(ForgeOptions) ([]byte, error) { return []byte{byte(t.Role)}, nil }

func parseSearchedRole(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return SearchedRole{Role: Role(body[0])}, nil
}

// SupportedRole advertises the role a device supports.
type SupportedRole struct {
	Role Role
}

func (SupportedRole) Type() Type { return TypeSupportedRole }
func (t SupportedRole) forgeBody(ForgeOptions) ([]byte, error) { return []byte{byte(t.Role)}, nil }

func parseSupportedRole(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return SupportedRole{Role: Role(body[0])}, nil
}

// FreqBand is the 1-byte RF band enumeration.
type FreqBand byte

const (
	FreqBand24GHz FreqBand = 0x00
	FreqBand5GHz  FreqBand = 0x01
	FreqBand60GHz FreqBand = 0x02
)

// AutoconfigFreqBand is carried in AP-autoconfiguration search messages to
// specify the band being searched for.
type AutoconfigFreqBand struct {
	Band FreqBand
}

func (AutoconfigFreqBand) Type() Type { return TypeAutoconfigFreqBand }
func (t AutoconfigFreqBand) forgeBody(ForgeOptions) ([]byte, error) { return []byte{byte(t.Band)}, nil }

func parseAutoconfigFreqBand(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return AutoconfigFreqBand{Band: FreqBand(body[0])}, nil
}

// SupportedFreqBand is carried in AP-autoconfiguration responses.
type SupportedFreqBand struct {
	Band FreqBand
}

func (SupportedFreqBand) Type() Type { return TypeSupportedFreqBand }
func (t SupportedFreqBand) forgeBody(ForgeOptions) ([]byte, error) { return []byte{byte(t.Band)}, nil }

func parseSupportedFreqBand(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return SupportedFreqBand{Band: FreqBand(body[0])}, nil
}

// LinkMetricResultCode carries a query result code; the only defined value
// is 0x00, meaning "invalid neighbor".
type LinkMetricResultCode struct {
	Code byte
}

// ResultCodeInvalidNeighbor is the only defined result code.
const ResultCodeInvalidNeighbor byte = 0x00

func (LinkMetricResultCode) Type() Type { return TypeLinkMetricResultCode }
func (t LinkMetricResultCode) forgeBody(ForgeOptions) ([]byte, error) { return []byte{t.Code}, nil }

func parseLinkMetricResultCode(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return LinkMetricResultCode{Code: body[0]}, nil
}

// ProfileVersion carries the 1905.1a profile version in use.
type ProfileVersion struct {
	Version byte
}

// Defined profile versions.
const (
	Profile1905_1  byte = 0x00
	Profile1905_1a byte = 0x01
)

func (ProfileVersion) Type() Type { return Type1905ProfileVersion }
func (t ProfileVersion) forgeBody(ForgeOptions) ([]byte, error) { return []byte{t.Version}, nil }

func parseProfileVersion(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return ProfileVersion{Version: body[0]}, nil
}

// forgeFixedString and parseFixedString handle fixed-capacity, NUL-padded
// ASCII strings as used by DeviceIdentification (≤64B friendly-name/
// manufacturer/model fields).
func forgeFixedString(s string, width int) []byte {
	b := make([]byte, width)
	copy(b, s)
	return b
}

func parseFixedString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// DeviceIdentification carries friendly-name/manufacturer/model strings
// (each padded/truncated to 64 bytes on the wire).
type DeviceIdentification struct {
	FriendlyName  string
	ManufacturerName string
	ModelName     string
}

const deviceIdentificationFieldLen = 64

func (DeviceIdentification) Type() Type { return TypeDeviceIdentification }
func (t DeviceIdentification) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(3 * deviceIdentificationFieldLen)
	w.N(forgeFixedString(t.FriendlyName, deviceIdentificationFieldLen))
	w.N(forgeFixedString(t.ManufacturerName, deviceIdentificationFieldLen))
	w.N(forgeFixedString(t.ModelName, deviceIdentificationFieldLen))
	return w.Bytes(), nil
}

func parseDeviceIdentification(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 3*deviceIdentificationFieldLen {
		return nil, ErrLengthMismatch
	}
	return DeviceIdentification{
		FriendlyName:     parseFixedString(body[0:64]),
		ManufacturerName: parseFixedString(body[64:128]),
		ModelName:        parseFixedString(body[128:192]),
	}, nil
}

// ControlURL carries the registrar's WSC control URL as a NUL-terminated
// string.
type ControlURL struct {
	URL string
}

func (ControlURL) Type() Type { return TypeControlURL }
func (t ControlURL) forgeBody(ForgeOptions) ([]byte, error) {
	return append([]byte(t.URL), 0), nil
}

func parseControlURL(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) == 0 || body[len(body)-1] != 0 {
		return nil, ErrLengthMismatch
	}
	return ControlURL{URL: parseFixedString(body)}, nil
}

// WSC is an opaque Wi-Fi Simple Configuration envelope. Its payload is
// interpreted by the (out-of-scope) WSC state machine; the core only
// transports it.
type WSC struct {
	Body []byte
}

func (WSC) Type() Type { return TypeWSC }
func (t WSC) forgeBody(ForgeOptions) ([]byte, error) {
	b := make([]byte, len(t.Body))
	copy(b, t.Body)
	return b, nil
}

func parseWSC(body []byte, _ ParseOptions) (TLV, error) {
	b := make([]byte, len(body))
	copy(b, body)
	return WSC{Body: b}, nil
}

// VendorSpecific carries a 3-byte OUI and an opaque, vendor-interpreted
// body. Sub-TLV parsing is deferred to a vendor extension keyed by OUI
// (extension package).
type VendorSpecific struct {
	OUI  [3]byte
	Body []byte
}

func (VendorSpecific) Type() Type { return TypeVendorSpecific }
func (t VendorSpecific) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(3 + len(t.Body))
	w.N(t.OUI[:])
	w.N(t.Body)
	return w.Bytes(), nil
}

func parseVendorSpecific(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) < 3 {
		return nil, ErrLengthMismatch
	}
	v := VendorSpecific{Body: make([]byte, len(body)-3)}
	copy(v.OUI[:], body[0:3])
	copy(v.Body, body[3:])
	return v, nil
}
