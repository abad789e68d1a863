package tlv

import (
	"github.com/broadband-mesh/al1905/wire"
)

func init() {
	register(TypeDeviceInformation, parseDeviceInformation)
	register(TypeDeviceBridgingCapability, parseDeviceBridgingCapability)
	register(TypeNon1905NeighborDeviceList, parseNon1905NeighborDeviceList)
	register(TypeNeighborDeviceList, parseNeighborDeviceList)
}

// MediaType is the 16-bit 1905 media-type code, see IEEE Std 1905.1-2013
// Table 6-12.
type MediaType uint16

// Defined media types (the ones whose media-specific payload the standard
// actually specifies).
const (
	MediaTypeIEEE802_3u_FastEthernet    MediaType = 0x0000
	MediaTypeIEEE802_3ab_GigabitEthernet MediaType = 0x0001
	MediaTypeIEEE802_11b_2_4GHz         MediaType = 0x0100
	MediaTypeIEEE802_11g_2_4GHz         MediaType = 0x0101
	MediaTypeIEEE802_11a_5GHz           MediaType = 0x0102
	MediaTypeIEEE802_11n_2_4GHz         MediaType = 0x0103
	MediaTypeIEEE802_11n_5GHz           MediaType = 0x0104
	MediaTypeIEEE802_11ac_5GHz          MediaType = 0x0105
	MediaTypeIEEE802_11ad_60GHz         MediaType = 0x0106
	MediaTypeIEEE802_11af               MediaType = 0x0107
	MediaTypeIEEE1901_Wavelet           MediaType = 0x0200
	MediaTypeIEEE1901_FFT               MediaType = 0x0201
	MediaTypeMoCAv1_1                   MediaType = 0x0300
	MediaTypeUnknown                    MediaType = 0xFFFF
)

// IsWifi reports whether m is one of the IEEE 802.11 media types.
func (m MediaType) IsWifi() bool { return m&0xFF00 == 0x0100 }

// Is1901 reports whether m is one of the IEEE 1901 media types.
func (m MediaType) Is1901() bool { return m&0xFF00 == 0x0200 }

const (
	wifiMediaSpecificLen = 10 // BSSID(6) + role nibble(1) + channel bytes(3)
	plcMediaSpecificLen  = 7  // IEEE 1901 network identifier
)

// WifiRole is the 1-byte (low nibble) role carried in the 802.11
// media-specific payload.
type WifiRole byte

const (
	WifiRoleAP      WifiRole = 0x0
	WifiRoleSTA     WifiRole = 0x4
	WifiRoleOther   WifiRole = 0xF
)

// WifiMediaSpecific is the 802.11 media-specific payload of a local
// interface entry: BSSID, role, and three channel-related bytes.
type WifiMediaSpecific struct {
	BSSID         wire.MAC
	Role          WifiRole
	RegulatoryClass byte
	Channel       byte
	Reserved      byte
}

func (m WifiMediaSpecific) forge() []byte {
	w := wire.NewWriter(wifiMediaSpecificLen)
	w.MAC(m.BSSID)
	w.U8(byte(m.Role) & 0x0F)
	w.U8(m.RegulatoryClass)
	w.U8(m.Channel)
	w.U8(m.Reserved)
	return w.Bytes()
}

func parseWifiMediaSpecific(b []byte) (WifiMediaSpecific, error) {
	if len(b) != wifiMediaSpecificLen {
		return WifiMediaSpecific{}, ErrBadMediaType
	}
	r := wire.NewReader(b)
	mac, _ := r.MAC()
	roleByte, _ := r.U8()
	regClass, _ := r.U8()
	channel, _ := r.U8()
	reserved, _ := r.U8()
	return WifiMediaSpecific{
		BSSID:           mac,
		Role:            WifiRole(roleByte & 0x0F),
		RegulatoryClass: regClass,
		Channel:         channel,
		Reserved:        reserved,
	}, nil
}

// PLCMediaSpecific is the IEEE 1901 media-specific payload: a 7-byte
// network identifier.
type PLCMediaSpecific struct {
	NetworkID [7]byte
}

func (m PLCMediaSpecific) forge() []byte { return append([]byte{}, m.NetworkID[:]...) }

func parsePLCMediaSpecific(b []byte) (PLCMediaSpecific, error) {
	if len(b) != plcMediaSpecificLen {
		return PLCMediaSpecific{}, ErrBadMediaType
	}
	var m PLCMediaSpecific
	copy(m.NetworkID[:], b)
	return m, nil
}

// LocalInterfaceEntry describes one interface of the local device inside a
// DeviceInformation TLV: MAC, media type, and a media-specific payload
// whose length is dictated by the media type.
type LocalInterfaceEntry struct {
	MAC            wire.MAC
	MediaType      MediaType
	WifiSpecific   *WifiMediaSpecific
	PLCSpecific    *PLCMediaSpecific
}

func (e LocalInterfaceEntry) mediaSpecificBytes() ([]byte, error) {
	switch {
	case e.MediaType.IsWifi():
		if e.WifiSpecific == nil {
			return nil, ErrBadMediaType
		}
		return e.WifiSpecific.forge(), nil
	case e.MediaType.Is1901():
		if e.PLCSpecific == nil {
			return nil, ErrBadMediaType
		}
		return e.PLCSpecific.forge(), nil
	default:
		if e.WifiSpecific != nil || e.PLCSpecific != nil {
			return nil, ErrBadMediaType
		}
		return nil, nil
	}
}

func parseLocalInterfaceMediaSpecific(mediaType MediaType, b []byte) (*WifiMediaSpecific, *PLCMediaSpecific, error) {
	switch {
	case mediaType.IsWifi():
		w, err := parseWifiMediaSpecific(b)
		if err != nil {
			return nil, nil, err
		}
		return &w, nil, nil
	case mediaType.Is1901():
		p, err := parsePLCMediaSpecific(b)
		if err != nil {
			return nil, nil, err
		}
		return nil, &p, nil
	default:
		if len(b) != 0 {
			return nil, nil, ErrBadMediaType
		}
		return nil, nil, nil
	}
}

// DeviceInformation enumerates the sender's AL MAC and every local
// interface it exposes to 1905.
type DeviceInformation struct {
	ALMac      wire.MAC
	Interfaces []LocalInterfaceEntry
}

func (DeviceInformation) Type() Type { return TypeDeviceInformation }

func (t DeviceInformation) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Interfaces) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(wire.MACLen + 1)
	w.MAC(t.ALMac)
	w.U8(byte(len(t.Interfaces)))
	for _, e := range t.Interfaces {
		specific, err := e.mediaSpecificBytes()
		if err != nil {
			return nil, err
		}
		w.MAC(e.MAC)
		w.U16(uint16(e.MediaType))
		w.U8(byte(len(specific)))
		w.N(specific)
	}
	return w.Bytes(), nil
}

func parseDeviceInformation(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	alMac, ok := r.MAC()
	if !ok {
		return nil, ErrShortBuffer
	}
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]LocalInterfaceEntry, 0, count)
	for i := 0; i < int(count); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		mt, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		specLen, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		specBytes, ok := r.N(int(specLen))
		if !ok {
			return nil, ErrShortBuffer
		}
		wifi, plc, err := parseLocalInterfaceMediaSpecific(MediaType(mt), specBytes)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LocalInterfaceEntry{
			MAC:          mac,
			MediaType:    MediaType(mt),
			WifiSpecific: wifi,
			PLCSpecific:  plc,
		})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return DeviceInformation{ALMac: alMac, Interfaces: entries}, nil
}

// BridgingTuple is one group of MACs bridged together, inside a
// DeviceBridgingCapability TLV.
type BridgingTuple struct {
	MACs []wire.MAC
}

// DeviceBridgingCapability lists the sets of local interfaces the sender
// bridges together.
type DeviceBridgingCapability struct {
	Tuples []BridgingTuple
}

func (DeviceBridgingCapability) Type() Type { return TypeDeviceBridgingCapability }

func (t DeviceBridgingCapability) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Tuples)))
	for _, tuple := range t.Tuples {
		w.U8(byte(len(tuple.MACs)))
		for _, m := range tuple.MACs {
			w.MAC(m)
		}
	}
	return w.Bytes(), nil
}

func parseDeviceBridgingCapability(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return DeviceBridgingCapability{}, nil
	}
	r := wire.NewReader(body)
	tupleCount, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	tuples := make([]BridgingTuple, 0, tupleCount)
	for i := 0; i < int(tupleCount); i++ {
		macCount, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		macs := make([]wire.MAC, 0, macCount)
		for j := 0; j < int(macCount); j++ {
			m, ok := r.MAC()
			if !ok {
				return nil, ErrShortBuffer
			}
			macs = append(macs, m)
		}
		tuples = append(tuples, BridgingTuple{MACs: macs})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return DeviceBridgingCapability{Tuples: tuples}, nil
}

// Non1905NeighborEntry is one neighbor MAC behind a local interface that
// does not speak 1905.
type Non1905NeighborEntry struct {
	MAC wire.MAC
}

// Non1905NeighborDeviceList reports non-1905 neighbors seen on one local
// interface.
type Non1905NeighborDeviceList struct {
	LocalMAC  wire.MAC
	Neighbors []Non1905NeighborEntry
}

func (Non1905NeighborDeviceList) Type() Type { return TypeNon1905NeighborDeviceList }

func (t Non1905NeighborDeviceList) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(wire.MACLen)
	w.MAC(t.LocalMAC)
	for _, n := range t.Neighbors {
		w.MAC(n.MAC)
	}
	return w.Bytes(), nil
}

func parseNon1905NeighborDeviceList(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) < wire.MACLen || (len(body)-wire.MACLen)%wire.MACLen != 0 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	local, _ := r.MAC()
	var neighbors []Non1905NeighborEntry
	for r.Remaining() > 0 {
		m, _ := r.MAC()
		neighbors = append(neighbors, Non1905NeighborEntry{MAC: m})
	}
	return Non1905NeighborDeviceList{LocalMAC: local, Neighbors: neighbors}, nil
}

// NeighborEntry is one 1905 neighbor seen on a local interface.
type NeighborEntry struct {
	ALMac          wire.MAC
	BridgesIEEE1905 bool
}

// NeighborDeviceList reports 1905 neighbors seen on one local interface.
type NeighborDeviceList struct {
	LocalMAC  wire.MAC
	Neighbors []NeighborEntry
}

func (NeighborDeviceList) Type() Type { return TypeNeighborDeviceList }

func (t NeighborDeviceList) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(wire.MACLen)
	w.MAC(t.LocalMAC)
	for _, n := range t.Neighbors {
		w.MAC(n.ALMac)
		if n.BridgesIEEE1905 {
			w.U8(0x80)
		} else {
			w.U8(0x00)
		}
	}
	return w.Bytes(), nil
}

func parseNeighborDeviceList(body []byte, _ ParseOptions) (TLV, error) {
	const entryLen = wire.MACLen + 1
	if len(body) < wire.MACLen || (len(body)-wire.MACLen)%entryLen != 0 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	local, _ := r.MAC()
	var neighbors []NeighborEntry
	for r.Remaining() > 0 {
		m, _ := r.MAC()
		flags, _ := r.U8()
		neighbors = append(neighbors, NeighborEntry{ALMac: m, BridgesIEEE1905: flags&0x80 != 0})
	}
	return NeighborDeviceList{LocalMAC: local, Neighbors: neighbors}, nil
}
