package alme

import "github.com/broadband-mesh/al1905/wire"

func init() {
	registerRequest(TypeSetFwdRuleRequest, parseSetFwdRuleRequest)
	registerResponse(TypeSetFwdRuleConfirm, parseSetFwdRuleConfirm)
	registerRequest(TypeGetFwdRulesRequest, parseGetFwdRulesRequest)
	registerResponse(TypeGetFwdRulesResponse, parseGetFwdRulesResponse)
	registerRequest(TypeModifyFwdRuleRequest, parseModifyFwdRuleRequest)
	registerResponse(TypeModifyFwdRuleConfirm, parseModifyFwdRuleConfirm)
	registerRequest(TypeRemoveFwdRuleRequest, parseRemoveFwdRuleRequest)
	registerResponse(TypeRemoveFwdRuleConfirm, parseRemoveFwdRuleConfirm)
}

// Classification is the packet-classification key of a forwarding rule:
// each field has an independent "flag" bit selecting whether it
// participates in the match (1905_alme.c's mac_da_flag/mac_sa_flag/
// ether_type_flag/vid_flag/pcp_flag).
type Classification struct {
	MacDA       wire.MAC
	MacDAFlag   bool
	MacSA       wire.MAC
	MacSAFlag   bool
	EtherType   uint16
	EtherTypeFlag bool
	VID         uint16 // 12 bits
	VIDFlag     bool
	PCP         byte // 3 bits
	PCPFlag     bool
}

func (c Classification) forge(w *wire.Writer) {
	w.MAC(c.MacDA)
	w.U8(boolByte(c.MacDAFlag))
	w.MAC(c.MacSA)
	w.U8(boolByte(c.MacSAFlag))
	w.U16(c.EtherType)
	w.U8(boolByte(c.EtherTypeFlag))
	w.U8(byte((c.VID >> 8) & 0x0F))
	w.U8(byte(c.VID & 0xFF))
	w.U8(boolByte(c.VIDFlag))
	w.U8(c.PCP & 0x07)
	w.U8(boolByte(c.PCPFlag))
}

func parseClassification(r *wire.Reader) (Classification, bool) {
	var c Classification
	var ok bool
	if c.MacDA, ok = r.MAC(); !ok {
		return c, false
	}
	f, ok := r.U8()
	if !ok {
		return c, false
	}
	c.MacDAFlag = f != 0
	if c.MacSA, ok = r.MAC(); !ok {
		return c, false
	}
	if f, ok = r.U8(); !ok {
		return c, false
	}
	c.MacSAFlag = f != 0
	if c.EtherType, ok = r.U16(); !ok {
		return c, false
	}
	if f, ok = r.U8(); !ok {
		return c, false
	}
	c.EtherTypeFlag = f != 0
	vidHi, ok := r.U8()
	if !ok {
		return c, false
	}
	vidLo, ok := r.U8()
	if !ok {
		return c, false
	}
	c.VID = uint16(vidHi&0x0F)<<8 | uint16(vidLo)
	if f, ok = r.U8(); !ok {
		return c, false
	}
	c.VIDFlag = f != 0
	pcp, ok := r.U8()
	if !ok {
		return c, false
	}
	c.PCP = pcp & 0x07
	if f, ok = r.U8(); !ok {
		return c, false
	}
	c.PCPFlag = f != 0
	return c, true
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SetFwdRuleRequest installs a new forwarding rule keyed on a
// Classification, with the set of local interface addresses to forward
// matching frames to.
type SetFwdRuleRequest struct {
	Classification Classification
	Addresses      []wire.MAC
}

func (SetFwdRuleRequest) Type() Type { return TypeSetFwdRuleRequest }
func (p SetFwdRuleRequest) forgeBody() ([]byte, error) {
	if len(p.Addresses) > 0xFF {
		return nil, ErrLengthMismatch
	}
	w := wire.NewWriter(32)
	p.Classification.forge(w)
	w.U8(byte(len(p.Addresses)))
	for _, a := range p.Addresses {
		w.MAC(a)
	}
	return w.Bytes(), nil
}

func parseSetFwdRuleRequest(body []byte) (Primitive, error) {
	r := wire.NewReader(body)
	c, ok := parseClassification(r)
	if !ok {
		return nil, ErrShortBuffer
	}
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	addrs := make([]wire.MAC, 0, count)
	for i := 0; i < int(count); i++ {
		a, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		addrs = append(addrs, a)
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return SetFwdRuleRequest{Classification: c, Addresses: addrs}, nil
}

// SetFwdRuleConfirm confirms rule installation, returning the assigned
// rule_id.
type SetFwdRuleConfirm struct {
	RuleID     uint16
	ReasonCode byte
}

func (SetFwdRuleConfirm) Type() Type { return TypeSetFwdRuleConfirm }
func (p SetFwdRuleConfirm) forgeBody() ([]byte, error) {
	w := wire.NewWriter(3)
	w.U16(p.RuleID)
	w.U8(p.ReasonCode)
	return w.Bytes(), nil
}

func parseSetFwdRuleConfirm(body []byte) (Primitive, error) {
	if len(body) != 3 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	id, _ := r.U16()
	reason, _ := r.U8()
	return SetFwdRuleConfirm{RuleID: id, ReasonCode: reason}, nil
}

// GetFwdRulesRequest asks for every installed forwarding rule. No payload.
type GetFwdRulesRequest struct{}

func (GetFwdRulesRequest) Type() Type                 { return TypeGetFwdRulesRequest }
func (GetFwdRulesRequest) forgeBody() ([]byte, error) { return nil, nil }
func parseGetFwdRulesRequest(body []byte) (Primitive, error) {
	if len(body) != 0 {
		return nil, ErrLengthMismatch
	}
	return GetFwdRulesRequest{}, nil
}

// FwdRuleEntry is one installed rule as reported by GetFwdRulesResponse.
type FwdRuleEntry struct {
	Classification Classification
	Addresses      []wire.MAC
	LastMatched    uint16
}

// GetFwdRulesResponse answers GetFwdRulesRequest with every installed rule.
type GetFwdRulesResponse struct {
	Rules []FwdRuleEntry
}

func (GetFwdRulesResponse) Type() Type { return TypeGetFwdRulesResponse }
func (p GetFwdRulesResponse) forgeBody() ([]byte, error) {
	if len(p.Rules) > 0xFF {
		return nil, ErrLengthMismatch
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(p.Rules)))
	for _, rule := range p.Rules {
		if len(rule.Addresses) > 0xFF {
			return nil, ErrLengthMismatch
		}
		rule.Classification.forge(w)
		w.U8(byte(len(rule.Addresses)))
		for _, a := range rule.Addresses {
			w.MAC(a)
		}
		w.U16(rule.LastMatched)
	}
	return w.Bytes(), nil
}

func parseGetFwdRulesResponse(body []byte) (Primitive, error) {
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	rules := make([]FwdRuleEntry, 0, count)
	for i := 0; i < int(count); i++ {
		c, ok := parseClassification(r)
		if !ok {
			return nil, ErrShortBuffer
		}
		addrCount, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		addrs := make([]wire.MAC, 0, addrCount)
		for j := 0; j < int(addrCount); j++ {
			a, ok := r.MAC()
			if !ok {
				return nil, ErrShortBuffer
			}
			addrs = append(addrs, a)
		}
		lastMatched, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		rules = append(rules, FwdRuleEntry{Classification: c, Addresses: addrs, LastMatched: lastMatched})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return GetFwdRulesResponse{Rules: rules}, nil
}

// ModifyFwdRuleRequest replaces the address set of an existing rule.
type ModifyFwdRuleRequest struct {
	RuleID    uint16
	Addresses []wire.MAC
}

func (ModifyFwdRuleRequest) Type() Type { return TypeModifyFwdRuleRequest }
func (p ModifyFwdRuleRequest) forgeBody() ([]byte, error) {
	if len(p.Addresses) > 0xFF {
		return nil, ErrLengthMismatch
	}
	w := wire.NewWriter(3)
	w.U16(p.RuleID)
	w.U8(byte(len(p.Addresses)))
	for _, a := range p.Addresses {
		w.MAC(a)
	}
	return w.Bytes(), nil
}

func parseModifyFwdRuleRequest(body []byte) (Primitive, error) {
	r := wire.NewReader(body)
	id, ok := r.U16()
	if !ok {
		return nil, ErrShortBuffer
	}
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	addrs := make([]wire.MAC, 0, count)
	for i := 0; i < int(count); i++ {
		a, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		addrs = append(addrs, a)
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return ModifyFwdRuleRequest{RuleID: id, Addresses: addrs}, nil
}

// ModifyFwdRuleConfirm confirms or rejects a rule modification.
type ModifyFwdRuleConfirm struct {
	RuleID     uint16
	ReasonCode byte
}

func (ModifyFwdRuleConfirm) Type() Type { return TypeModifyFwdRuleConfirm }
func (p ModifyFwdRuleConfirm) forgeBody() ([]byte, error) {
	w := wire.NewWriter(3)
	w.U16(p.RuleID)
	w.U8(p.ReasonCode)
	return w.Bytes(), nil
}

func parseModifyFwdRuleConfirm(body []byte) (Primitive, error) {
	if len(body) != 3 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	id, _ := r.U16()
	reason, _ := r.U8()
	return ModifyFwdRuleConfirm{RuleID: id, ReasonCode: reason}, nil
}

// RemoveFwdRuleRequest deletes an installed rule by ID.
type RemoveFwdRuleRequest struct {
	RuleID uint16
}

func (RemoveFwdRuleRequest) Type() Type { return TypeRemoveFwdRuleRequest }
func (p RemoveFwdRuleRequest) forgeBody() ([]byte, error) {
	w := wire.NewWriter(2)
	w.U16(p.RuleID)
	return w.Bytes(), nil
}

func parseRemoveFwdRuleRequest(body []byte) (Primitive, error) {
	if len(body) != 2 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	id, _ := r.U16()
	return RemoveFwdRuleRequest{RuleID: id}, nil
}

// RemoveFwdRuleConfirm confirms or rejects a rule removal.
type RemoveFwdRuleConfirm struct {
	RuleID     uint16
	ReasonCode byte
}

func (RemoveFwdRuleConfirm) Type() Type { return TypeRemoveFwdRuleConfirm }
func (p RemoveFwdRuleConfirm) forgeBody() ([]byte, error) {
	w := wire.NewWriter(3)
	w.U16(p.RuleID)
	w.U8(p.ReasonCode)
	return w.Bytes(), nil
}

func parseRemoveFwdRuleConfirm(body []byte) (Primitive, error) {
	if len(body) != 3 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	id, _ := r.U16()
	reason, _ := r.U8()
	return RemoveFwdRuleConfirm{RuleID: id, ReasonCode: reason}, nil
}
