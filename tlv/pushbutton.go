package tlv

import "github.com/broadband-mesh/al1905/wire"

func init() {
	register(TypePushButtonEventNotification, parsePushButtonEventNotification)
	register(TypePushButtonJoinNotification, parsePushButtonJoinNotification)
	register(TypePushButtonGenericPhyEventNotification, parsePushButtonGenericPhyEventNotification)
}

// MediaTypeEntry is one (media type, media-specific payload) pair, used by
// PushButtonEventNotification to list the media on which the button was
// pressed.
type MediaTypeEntry struct {
	MediaType    MediaType
	WifiSpecific *WifiMediaSpecific
	PLCSpecific  *PLCMediaSpecific
}

func (e MediaTypeEntry) mediaSpecificBytes() ([]byte, error) {
	return LocalInterfaceEntry{MediaType: e.MediaType, WifiSpecific: e.WifiSpecific, PLCSpecific: e.PLCSpecific}.mediaSpecificBytes()
}

// PushButtonEventNotification announces that the push-button mechanism was
// activated on one or more local media.
type PushButtonEventNotification struct {
	Media []MediaTypeEntry
}

func (PushButtonEventNotification) Type() Type { return TypePushButtonEventNotification }

func (t PushButtonEventNotification) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Media)))
	for _, e := range t.Media {
		specific, err := e.mediaSpecificBytes()
		if err != nil {
			return nil, err
		}
		w.U16(uint16(e.MediaType))
		w.U8(byte(len(specific)))
		w.N(specific)
	}
	return w.Bytes(), nil
}

func parsePushButtonEventNotification(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return PushButtonEventNotification{}, nil
	}
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]MediaTypeEntry, 0, count)
	for i := 0; i < int(count); i++ {
		mt, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		n, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		specBytes, ok := r.N(int(n))
		if !ok {
			return nil, ErrShortBuffer
		}
		wifi, plc, err := parseLocalInterfaceMediaSpecific(MediaType(mt), specBytes)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MediaTypeEntry{MediaType: MediaType(mt), WifiSpecific: wifi, PLCSpecific: plc})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return PushButtonEventNotification{Media: entries}, nil
}

// PushButtonJoinNotification is sent by a device that observed a new
// device join the network through a push-button mechanism it relayed.
type PushButtonJoinNotification struct {
	ALMac         wire.MAC
	MAC           wire.MAC
	TransactionID uint16
	NewMAC        wire.MAC
}

func (PushButtonJoinNotification) Type() Type { return TypePushButtonJoinNotification }

func (t PushButtonJoinNotification) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(3*wire.MACLen + 2)
	w.MAC(t.ALMac)
	w.MAC(t.MAC)
	w.U16(t.TransactionID)
	w.MAC(t.NewMAC)
	return w.Bytes(), nil
}

func parsePushButtonJoinNotification(body []byte, _ ParseOptions) (TLV, error) {
	if len(body) != 3*wire.MACLen+2 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	alMac, _ := r.MAC()
	mac, _ := r.MAC()
	txID, _ := r.U16()
	newMac, _ := r.MAC()
	return PushButtonJoinNotification{ALMac: alMac, MAC: mac, TransactionID: txID, NewMAC: newMac}, nil
}

// GenericPhyPushButtonEntry identifies one non-802.11/non-1901 PHY on which
// the push button was pressed, by OUI + variant index + vendor-specific
// info (≤16 bytes, like the generic PHY device info entries in genericphy.go).
type GenericPhyPushButtonEntry struct {
	OUI          [3]byte
	VariantIndex byte
	SpecificInfo []byte
}

// PushButtonGenericPhyEventNotification is the generic-PHY analog of
// PushButtonEventNotification, for media not covered by MediaType.
type PushButtonGenericPhyEventNotification struct {
	Entries []GenericPhyPushButtonEntry
}

func (PushButtonGenericPhyEventNotification) Type() Type {
	return TypePushButtonGenericPhyEventNotification
}

func (t PushButtonGenericPhyEventNotification) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Entries) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Entries)))
	for _, e := range t.Entries {
		if len(e.SpecificInfo) > 16 {
			return nil, ErrTooLong
		}
		w.N(e.OUI[:])
		w.U8(e.VariantIndex)
		w.U8(byte(len(e.SpecificInfo)))
		w.N(e.SpecificInfo)
	}
	return w.Bytes(), nil
}

func parsePushButtonGenericPhyEventNotification(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return PushButtonGenericPhyEventNotification{}, nil
	}
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	entries := make([]GenericPhyPushButtonEntry, 0, count)
	for i := 0; i < int(count); i++ {
		oui, ok := r.N(3)
		if !ok {
			return nil, ErrShortBuffer
		}
		variant, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		n, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		info, ok := r.N(int(n))
		if !ok {
			return nil, ErrShortBuffer
		}
		var e GenericPhyPushButtonEntry
		copy(e.OUI[:], oui)
		e.VariantIndex = variant
		e.SpecificInfo = info
		entries = append(entries, e)
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return PushButtonGenericPhyEventNotification{Entries: entries}, nil
}
