package tlv

import "github.com/broadband-mesh/al1905/wire"

func init() {
	register(TypePowerOffInterface, parsePowerOffInterface)
	register(TypeInterfacePowerChangeInformation, parseInterfacePowerChangeInformation)
	register(TypeInterfacePowerChangeStatus, parseInterfacePowerChangeStatus)
}

// PowerOffInterfaceEntry identifies one local interface that is currently
// powered off, by MAC, media type, and (for generic-PHY media) its
// OUI/variant-index/variant-name identity.
type PowerOffInterfaceEntry struct {
	MAC          wire.MAC
	MediaType    MediaType
	OUI          [3]byte
	VariantIndex byte
	VariantName  string
}

// PowerOffInterface lists local interfaces that are powered off and
// therefore unreachable.
type PowerOffInterface struct {
	Interfaces []PowerOffInterfaceEntry
}

func (PowerOffInterface) Type() Type { return TypePowerOffInterface }

func (t PowerOffInterface) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Interfaces) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Interfaces)))
	for _, e := range t.Interfaces {
		w.MAC(e.MAC)
		w.U16(uint16(e.MediaType))
		w.N(e.OUI[:])
		w.U8(e.VariantIndex)
		w.N(forgeFixedString(e.VariantName, genericPhyVariantNameLen))
	}
	return w.Bytes(), nil
}

func parsePowerOffInterface(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return PowerOffInterface{}, nil
	}
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]PowerOffInterfaceEntry, 0, count)
	for i := 0; i < int(count); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		mt, ok := r.U16()
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
		var e PowerOffInterfaceEntry
		e.MAC = mac
		e.MediaType = MediaType(mt)
		copy(e.OUI[:], oui)
		e.VariantIndex = variant
		e.VariantName = parseFixedString(name)
		entries = append(entries, e)
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return PowerOffInterface{Interfaces: entries}, nil
}

// PowerChangeRequest selects the requested power state of one interface.
type PowerChangeRequest byte

const (
	PowerChangeRequestOn       PowerChangeRequest = 0x00
	PowerChangeRequestOff      PowerChangeRequest = 0x01
	PowerChangeRequestSaveMode PowerChangeRequest = 0x02
)

// InterfacePowerChangeEntry pairs one local interface with a requested
// power state.
type InterfacePowerChangeEntry struct {
	MAC     wire.MAC
	Request PowerChangeRequest
}

// InterfacePowerChangeInformation requests a power-state change on one or
// more local interfaces of the recipient.
type InterfacePowerChangeInformation struct {
	Interfaces []InterfacePowerChangeEntry
}

func (InterfacePowerChangeInformation) Type() Type { return TypeInterfacePowerChangeInformation }

func (t InterfacePowerChangeInformation) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Interfaces) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Interfaces)))
	for _, e := range t.Interfaces {
		w.MAC(e.MAC)
		w.U8(byte(e.Request))
	}
	return w.Bytes(), nil
}

func parseInterfacePowerChangeInformation(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return InterfacePowerChangeInformation{}, nil
	}
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]InterfacePowerChangeEntry, 0, count)
	for i := 0; i < int(count); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		req, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		entries = append(entries, InterfacePowerChangeEntry{MAC: mac, Request: PowerChangeRequest(req)})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return InterfacePowerChangeInformation{Interfaces: entries}, nil
}

// PowerChangeStatus reports the outcome of a requested power-state change.
type PowerChangeStatus byte

const (
	PowerChangeStatusCompleted PowerChangeStatus = 0x00
	PowerChangeStatusNoChange  PowerChangeStatus = 0x01
	PowerChangeStatusAlarm     PowerChangeStatus = 0x02
)

// InterfacePowerChangeStatusEntry pairs one local interface with the
// outcome of a requested power-state change.
type InterfacePowerChangeStatusEntry struct {
	MAC    wire.MAC
	Status PowerChangeStatus
}

// InterfacePowerChangeStatus is the response to InterfacePowerChangeInformation.
type InterfacePowerChangeStatus struct {
	Interfaces []InterfacePowerChangeStatusEntry
}

func (InterfacePowerChangeStatus) Type() Type { return TypeInterfacePowerChangeStatus }

func (t InterfacePowerChangeStatus) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Interfaces) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Interfaces)))
	for _, e := range t.Interfaces {
		w.MAC(e.MAC)
		w.U8(byte(e.Status))
	}
	return w.Bytes(), nil
}

func parseInterfacePowerChangeStatus(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return InterfacePowerChangeStatus{}, nil
	}
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]InterfacePowerChangeStatusEntry, 0, count)
	for i := 0; i < int(count); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		status, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		entries = append(entries, InterfacePowerChangeStatusEntry{MAC: mac, Status: PowerChangeStatus(status)})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return InterfacePowerChangeStatus{Interfaces: entries}, nil
}
