package tlv

import "github.com/broadband-mesh/al1905/wire"

func init() {
	register(TypeSupportedService, parseSupportedService)
	register(TypeSearchedService, parseSearchedService)
	register(TypeAPOperationalBSS, parseAPOperationalBSS)
	register(TypeAssociatedClients, parseAssociatedClients)
}

// ServiceType enumerates the Multi-AP roles a device can advertise.
type ServiceType byte

const (
	ServiceTypeMultiAPController ServiceType = 0x00
	ServiceTypeMultiAPAgent      ServiceType = 0x01
)

// SupportedService lists the Multi-AP services this device implements,
// sent unsolicited in AP-Autoconfiguration WSC/M1 exchanges and topology
// responses.
type SupportedService struct {
	Services []ServiceType
}

func (SupportedService) Type() Type { return TypeSupportedService }

func (t SupportedService) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Services) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Services)))
	for _, s := range t.Services {
		w.U8(byte(s))
	}
	return w.Bytes(), nil
}

func parseSupportedService(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	services := make([]ServiceType, 0, count)
	for i := 0; i < int(count); i++ {
		s, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		services = append(services, ServiceType(s))
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return SupportedService{Services: services}, nil
}

// SearchedService lists the Multi-AP services the sender is looking for in
// an AP-Autoconfiguration search.
type SearchedService struct {
	Services []ServiceType
}

func (SearchedService) Type() Type { return TypeSearchedService }

func (t SearchedService) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Services) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Services)))
	for _, s := range t.Services {
		w.U8(byte(s))
	}
	return w.Bytes(), nil
}

func parseSearchedService(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	services := make([]ServiceType, 0, count)
	for i := 0; i < int(count); i++ {
		s, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		services = append(services, ServiceType(s))
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return SearchedService{Services: services}, nil
}

// BSSInfoFlags carries the per-BSS boolean attributes of an
// APOperationalBSS entry (backhaul/fronthaul use, teardown eligibility).
type BSSInfoFlags byte

const (
	BSSFlagBackhaulBSS  BSSInfoFlags = 1 << 0
	BSSFlagFronthaulBSS BSSInfoFlags = 1 << 1
)

// APOperationalBSSEntry describes one operating BSS: its BSSID and SSID.
type APOperationalBSSEntry struct {
	BSSID wire.MAC
	SSID  string
}

// APOperationalRadioEntry groups the operating BSSes of one radio.
type APOperationalRadioEntry struct {
	RadioID wire.MAC
	BSSes   []APOperationalBSSEntry
}

// APOperationalBSS reports the BSSes currently operating on each of the
// sender's radios (Multi-AP Topology Response contribution).
type APOperationalBSS struct {
	Radios []APOperationalRadioEntry
}

func (APOperationalBSS) Type() Type { return TypeAPOperationalBSS }

func (t APOperationalBSS) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Radios) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Radios)))
	for _, radio := range t.Radios {
		if len(radio.BSSes) > 0xFF {
			return nil, ErrTooLong
		}
		w.MAC(radio.RadioID)
		w.U8(byte(len(radio.BSSes)))
		for _, bss := range radio.BSSes {
			if len(bss.SSID) > 0xFF {
				return nil, ErrTooLong
			}
			w.MAC(bss.BSSID)
			w.U8(byte(len(bss.SSID)))
			w.N([]byte(bss.SSID))
		}
	}
	return w.Bytes(), nil
}

func parseAPOperationalBSS(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	radioCount, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	radios := make([]APOperationalRadioEntry, 0, radioCount)
	for i := 0; i < int(radioCount); i++ {
		radioID, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		bssCount, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		bsses := make([]APOperationalBSSEntry, 0, bssCount)
		for j := 0; j < int(bssCount); j++ {
			bssid, ok := r.MAC()
			if !ok {
				return nil, ErrShortBuffer
			}
			ssidLen, ok := r.U8()
			if !ok {
				return nil, ErrShortBuffer
			}
			ssidBytes, ok := r.N(int(ssidLen))
			if !ok {
				return nil, ErrShortBuffer
			}
			bsses = append(bsses, APOperationalBSSEntry{BSSID: bssid, SSID: string(ssidBytes)})
		}
		radios = append(radios, APOperationalRadioEntry{RadioID: radioID, BSSes: bsses})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return APOperationalBSS{Radios: radios}, nil
}

// AssociatedClientEntry identifies one client station associated to a BSS,
// with the time (seconds) since its last association.
type AssociatedClientEntry struct {
	MAC              wire.MAC
	SecondsSinceAssoc uint16
}

// AssociatedClientsBSSEntry groups the clients associated to one BSS.
type AssociatedClientsBSSEntry struct {
	BSSID   wire.MAC
	Clients []AssociatedClientEntry
}

// AssociatedClients reports the client stations currently associated to
// each of the sender's BSSes (Multi-AP Topology Response contribution).
type AssociatedClients struct {
	BSSes []AssociatedClientsBSSEntry
}

func (AssociatedClients) Type() Type { return TypeAssociatedClients }

func (t AssociatedClients) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.BSSes) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.BSSes)))
	for _, bss := range t.BSSes {
		if len(bss.Clients) > 0xFFFF {
			return nil, ErrTooLong
		}
		w.MAC(bss.BSSID)
		w.U16(uint16(len(bss.Clients)))
		for _, c := range bss.Clients {
			w.MAC(c.MAC)
			w.U16(c.SecondsSinceAssoc)
		}
	}
	return w.Bytes(), nil
}

func parseAssociatedClients(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	bssCount, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	bsses := make([]AssociatedClientsBSSEntry, 0, bssCount)
	for i := 0; i < int(bssCount); i++ {
		bssid, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		clientCount, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		clients := make([]AssociatedClientEntry, 0, clientCount)
		for j := 0; j < int(clientCount); j++ {
			mac, ok := r.MAC()
			if !ok {
				return nil, ErrShortBuffer
			}
			secs, ok := r.U16()
			if !ok {
				return nil, ErrShortBuffer
			}
			clients = append(clients, AssociatedClientEntry{MAC: mac, SecondsSinceAssoc: secs})
		}
		bsses = append(bsses, AssociatedClientsBSSEntry{BSSID: bssid, Clients: clients})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return AssociatedClients{BSSes: bsses}, nil
}
