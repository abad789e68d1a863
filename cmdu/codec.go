package cmdu

import (
	"sort"

	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

type fragmentHeader struct {
	Header
	version byte
}

func parseFragmentHeader(r *wire.Reader) (fragmentHeader, bool) {
	version, ok := r.U8()
	if !ok {
		return fragmentHeader{}, false
	}
	if _, ok := r.U8(); !ok { // reserved byte
		return fragmentHeader{}, false
	}
	mt, ok := r.U16()
	if !ok {
		return fragmentHeader{}, false
	}
	id, ok := r.U16()
	if !ok {
		return fragmentHeader{}, false
	}
	fragID, ok := r.U8()
	if !ok {
		return fragmentHeader{}, false
	}
	indicators, ok := r.U8()
	if !ok {
		return fragmentHeader{}, false
	}
	return fragmentHeader{
		version: version,
		Header: Header{
			MessageType:  MessageType(mt),
			MessageID:    id,
			FragmentID:   fragID,
			LastFragment: indicators&indicatorLastFragment != 0,
			Relay:        indicators&indicatorRelay != 0,
		},
	}, true
}

// Parse reassembles fragments (which may arrive out of order) into a
// single rule-checked CMDU.
func Parse(fragments [][]byte, opts tlv.ParseOptions) (*CMDU, error) {
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}

	type parsedFragment struct {
		hdr  fragmentHeader
		tlvs []tlv.TLV
	}
	parsed := make([]parsedFragment, 0, len(fragments))
	for _, buf := range fragments {
		r := wire.NewReader(buf)
		hdr, ok := parseFragmentHeader(r)
		if !ok {
			return nil, ErrMissingFragmentZero
		}
		var tlvs []tlv.TLV
		for {
			if r.Remaining() == 0 {
				return nil, ErrMissingEOM
			}
			v, n, err := tlv.Parse(r.Bytes(), opts)
			if err != nil {
				return nil, err
			}
			if !r.Skip(n) {
				return nil, ErrMissingEOM
			}
			if v.Type() == tlv.TypeEndOfMessage {
				break
			}
			tlvs = append(tlvs, v)
		}
		parsed = append(parsed, parsedFragment{hdr: hdr, tlvs: tlvs})
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].hdr.FragmentID < parsed[j].hdr.FragmentID
	})

	if parsed[0].hdr.FragmentID != 0 {
		return nil, ErrMissingFragmentZero
	}
	base := parsed[0].hdr
	seen := map[byte]bool{base.FragmentID: true}
	maxFragID := base.FragmentID
	for _, f := range parsed[1:] {
		if f.hdr.version != base.version || f.hdr.MessageType != base.MessageType ||
			f.hdr.MessageID != base.MessageID || f.hdr.Relay != base.Relay {
			return nil, ErrHeaderMismatch
		}
		if seen[f.hdr.FragmentID] {
			return nil, ErrDuplicateFragment
		}
		seen[f.hdr.FragmentID] = true
		if f.hdr.FragmentID > maxFragID {
			maxFragID = f.hdr.FragmentID
		}
	}
	for _, f := range parsed {
		if (f.hdr.FragmentID == maxFragID) != f.hdr.LastFragment {
			return nil, ErrLastFragmentFlag
		}
	}

	r, ok := rules[base.MessageType]
	if !ok {
		return nil, ErrUnknownMessageType
	}
	if r.fixedRelay != nil && base.Relay != *r.fixedRelay {
		return nil, ErrHeaderMismatch
	}

	var allTLVs []tlv.TLV
	for _, f := range parsed {
		allTLVs = append(allTLVs, f.tlvs...)
	}

	if r.vendorLeading {
		if len(allTLVs) == 0 || allTLVs[0].Type() != tlv.TypeVendorSpecific {
			return nil, ErrVendorMustLeadVendorCMDU
		}
	}

	allow := allowSet(r)
	kept := allTLVs[:0:0]
	seenCount := map[tlv.Type]int{}
	for _, v := range allTLVs {
		if v.Type() == tlv.TypeVendorSpecific {
			kept = append(kept, v)
			continue
		}
		if !allow[v.Type()] {
			tlv.Free(v) // unexpected-but-well-formed TLV: dropped silently on receive
			continue
		}
		kept = append(kept, v)
		seenCount[v.Type()]++
	}
	for _, req := range r.required {
		if seenCount[req] == 0 {
			return nil, ErrMissingRequiredTLV
		}
		if seenCount[req] > 1 {
			return nil, ErrRepeatedRequiredTLV
		}
	}

	return &CMDU{
		Header: Header{
			MessageType:  base.MessageType,
			MessageID:    base.MessageID,
			FragmentID:   0,
			LastFragment: true,
			Relay:        base.Relay,
		},
		TLVs: kept,
	}, nil
}

// Forge rule-checks c, then greedily packs its TLVs into fragments of at
// most maxSegmentSize-25 bytes of TLV payload.
func Forge(c CMDU, maxSegmentSize int, opts tlv.ForgeOptions) ([][]byte, error) {
	r, ok := rules[c.Header.MessageType]
	if !ok {
		return nil, ErrUnknownMessageType
	}
	relay := c.Header.Relay
	if r.fixedRelay != nil {
		relay = *r.fixedRelay
	}
	if r.vendorLeading {
		if len(c.TLVs) == 0 || c.TLVs[0].Type() != tlv.TypeVendorSpecific {
			return nil, ErrVendorMustLeadVendorCMDU
		}
	}

	allow := allowSet(r)
	seenCount := map[tlv.Type]int{}
	serialized := make([][]byte, len(c.TLVs))
	for i, v := range c.TLVs {
		if v.Type() != tlv.TypeVendorSpecific && !allow[v.Type()] {
			return nil, ErrUnexpectedTLV
		}
		seenCount[v.Type()]++
		b, err := tlv.Forge(v, opts)
		if err != nil {
			return nil, err
		}
		serialized[i] = b
	}
	for _, req := range r.required {
		if seenCount[req] == 0 {
			return nil, ErrMissingRequiredTLV
		}
		if seenCount[req] > 1 {
			return nil, ErrRepeatedRequiredTLV
		}
	}

	eom, err := tlv.Forge(tlv.EndOfMessage{}, opts)
	if err != nil {
		return nil, err
	}
	budget := maxSegmentSize - 25
	if budget <= 0 {
		budget = 0
	}

	var fragments [][]byte
	var cur []byte
	flush := func() {
		fragments = append(fragments, append(cur, eom...))
		cur = nil
	}
	for _, b := range serialized {
		if len(b) > budget {
			return nil, ErrTLVTooLargeForFragment
		}
		if len(cur)+len(b) > budget {
			flush()
		}
		cur = append(cur, b...)
	}
	flush()
	if len(fragments) == 0 {
		fragments = [][]byte{eom}
	}

	out := make([][]byte, len(fragments))
	for i, body := range fragments {
		w := wire.NewWriter(8 + len(body))
		w.U8(Version)
		w.U8(0) // reserved
		w.U16(uint16(c.Header.MessageType))
		w.U16(c.Header.MessageID)
		w.U8(byte(i))
		var indicators byte
		if i == len(fragments)-1 {
			indicators |= indicatorLastFragment
		}
		if relay {
			indicators |= indicatorRelay
		}
		w.U8(indicators)
		w.N(body)
		out[i] = w.Bytes()
	}
	return out, nil
}
