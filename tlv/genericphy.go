package tlv

import "github.com/broadband-mesh/al1905/wire"

func init() {
	register(TypeGenericPhyDeviceInformation, parseGenericPhyDeviceInformation)
}

const genericPhyVariantNameLen = 32
const genericPhyMaxSpecificInfoLen = 16

// GenericPhyInterfaceEntry describes one local interface whose medium isn't
// covered by a MediaType code: an OUI + variant index identify the PHY, a
// URL points at the IEEE 1905.1 Annex B XML description, and up to 16 bytes
// of vendor-specific info complete the picture.
type GenericPhyInterfaceEntry struct {
	MAC          wire.MAC
	OUI          [3]byte
	VariantIndex byte
	VariantName  string
	XMLURL       string
	SpecificInfo []byte
}

// GenericPhyDeviceInformation enumerates the sender's generic-PHY local
// interfaces: nested interfaces with an XML description URL and
// media-specific bytes.
type GenericPhyDeviceInformation struct {
	ALMac      wire.MAC
	Interfaces []GenericPhyInterfaceEntry
}

func (GenericPhyDeviceInformation) Type() Type { return TypeGenericPhyDeviceInformation }

func (t GenericPhyDeviceInformation) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Interfaces) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(wire.MACLen + 1)
	w.MAC(t.ALMac)
	w.U8(byte(len(t.Interfaces)))
	for _, e := range t.Interfaces {
		if len(e.SpecificInfo) > genericPhyMaxSpecificInfoLen {
			return nil, ErrTooLong
		}
		if len(e.XMLURL) > 0xFF {
			return nil, ErrTooLong
		}
		w.MAC(e.MAC)
		w.N(e.OUI[:])
		w.U8(e.VariantIndex)
		w.N(forgeFixedString(e.VariantName, genericPhyVariantNameLen))
		w.U8(byte(len(e.XMLURL) + 1)) // URL length includes the NUL terminator, per the standard
		w.N(append([]byte(e.XMLURL), 0))
		w.U8(byte(len(e.SpecificInfo)))
		w.N(e.SpecificInfo)
	}
	return w.Bytes(), nil
}

func parseGenericPhyDeviceInformation(body []byte, _ ParseOptions) (TLV, error) {
	r := wire.NewReader(body)
	alMac, ok := r.MAC()
	if !ok {
		return nil, ErrShortBuffer
	}
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]GenericPhyInterfaceEntry, 0, count)
	for i := 0; i < int(count); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		oui, ok := r.N(3)
		if !ok {
			return nil, ErrShortBuffer
		}
		variant, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		name, ok := r.N(genericPhyVariantNameLen)
		if !ok {
			return nil, ErrShortBuffer
		}
		urlLen, ok := r.U8()
		if !ok || urlLen == 0 {
			return nil, ErrShortBuffer
		}
		urlBytes, ok := r.N(int(urlLen))
		if !ok {
			return nil, ErrShortBuffer
		}
		infoLen, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		info, ok := r.N(int(infoLen))
		if !ok {
			return nil, ErrShortBuffer
		}
		var e GenericPhyInterfaceEntry
		e.MAC = mac
		copy(e.OUI[:], oui)
		e.VariantIndex = variant
		e.VariantName = parseFixedString(name)
		e.XMLURL = parseFixedString(urlBytes)
		e.SpecificInfo = info
		entries = append(entries, e)
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return GenericPhyDeviceInformation{ALMac: alMac, Interfaces: entries}, nil
}
