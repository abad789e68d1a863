package alme

import "github.com/broadband-mesh/al1905/wire"

func init() {
	registerRequest(TypeGetIntfListRequest, parseGetIntfListRequest)
	registerResponse(TypeGetIntfListResponse, parseGetIntfListResponse)
	registerRequest(TypeSetIntfPwrStateRequest, parseSetIntfPwrStateRequest)
	registerResponse(TypeSetIntfPwrStateConfirm, parseSetIntfPwrStateConfirm)
	registerRequest(TypeGetIntfPwrStateRequest, parseGetIntfPwrStateRequest)
	registerResponse(TypeGetIntfPwrStateResponse, parseGetIntfPwrStateResponse)
}

// GetIntfListRequest asks the AL for its local interface list. It carries
// no payload.
type GetIntfListRequest struct{}

func (GetIntfListRequest) Type() Type                    { return TypeGetIntfListRequest }
func (GetIntfListRequest) forgeBody() ([]byte, error)    { return nil, nil }
func parseGetIntfListRequest(body []byte) (Primitive, error) {
	if len(body) != 0 {
		return nil, ErrLengthMismatch
	}
	return GetIntfListRequest{}, nil
}

// VendorInfoEntry is one vendor-specific information element attached to
// an interface descriptor.
type VendorInfoEntry struct {
	IEType uint16
	OUI    [3]byte
	Body   []byte
}

// InterfaceDescriptor describes one local interface: its MAC, media type,
// bridge membership, and any vendor info elements.
type InterfaceDescriptor struct {
	MAC        wire.MAC
	MediaType  uint16
	Bridged    bool
	VendorInfo []VendorInfoEntry
}

// GetIntfListResponse answers GetIntfListRequest with every local
// interface descriptor.
type GetIntfListResponse struct {
	Interfaces []InterfaceDescriptor
}

func (GetIntfListResponse) Type() Type { return TypeGetIntfListResponse }

func (p GetIntfListResponse) forgeBody() ([]byte, error) {
	if len(p.Interfaces) > 0xFF {
		return nil, ErrLengthMismatch
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(p.Interfaces)))
	for _, d := range p.Interfaces {
		if len(d.VendorInfo) > 0xFF {
			return nil, ErrLengthMismatch
		}
		w.MAC(d.MAC)
		w.U16(d.MediaType)
		if d.Bridged {
			w.U8(1)
		} else {
			w.U8(0)
		}
		w.U8(byte(len(d.VendorInfo)))
		for _, v := range d.VendorInfo {
			if len(v.Body) > 0xFFFF-3 {
				return nil, ErrLengthMismatch
			}
			w.U16(v.IEType)
			w.U16(uint16(3 + len(v.Body))) // length covers the OUI and the body
			w.N(v.OUI[:])
			w.N(v.Body)
		}
	}
	return w.Bytes(), nil
}

func parseGetIntfListResponse(body []byte) (Primitive, error) {
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	descs := make([]InterfaceDescriptor, 0, count)
	for i := 0; i < int(count); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		mt, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		bridged, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		vnr, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		vendor := make([]VendorInfoEntry, 0, vnr)
		for j := 0; j < int(vnr); j++ {
			ieType, ok := r.U16()
			if !ok {
				return nil, ErrShortBuffer
			}
			length, ok := r.U16()
			if !ok {
				return nil, ErrShortBuffer
			}
			oui, ok := r.N(3)
			if !ok || length < 3 {
				return nil, ErrShortBuffer
			}
			vendorBody, ok := r.N(int(length) - 3)
			if !ok {
				return nil, ErrShortBuffer
			}
			var v VendorInfoEntry
			v.IEType = ieType
			copy(v.OUI[:], oui)
			v.Body = vendorBody
			vendor = append(vendor, v)
		}
		descs = append(descs, InterfaceDescriptor{MAC: mac, MediaType: mt, Bridged: bridged != 0, VendorInfo: vendor})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return GetIntfListResponse{Interfaces: descs}, nil
}

// PowerState is the requested/reported power state of an interface.
type PowerState byte

const (
	PowerStateOn  PowerState = 0x00
	PowerStateOff PowerState = 0x01
)

// SetIntfPwrStateRequest asks the AL to change one interface's power state.
type SetIntfPwrStateRequest struct {
	InterfaceAddress wire.MAC
	PowerState       PowerState
}

func (SetIntfPwrStateRequest) Type() Type { return TypeSetIntfPwrStateRequest }
func (p SetIntfPwrStateRequest) forgeBody() ([]byte, error) {
	w := wire.NewWriter(wire.MACLen + 1)
	w.MAC(p.InterfaceAddress)
	w.U8(byte(p.PowerState))
	return w.Bytes(), nil
}

func parseSetIntfPwrStateRequest(body []byte) (Primitive, error) {
	if len(body) != wire.MACLen+1 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	state, _ := r.U8()
	return SetIntfPwrStateRequest{InterfaceAddress: mac, PowerState: PowerState(state)}, nil
}

// SetIntfPwrStateConfirm confirms or rejects a power-state change request.
type SetIntfPwrStateConfirm struct {
	InterfaceAddress wire.MAC
	ReasonCode       byte
}

func (SetIntfPwrStateConfirm) Type() Type { return TypeSetIntfPwrStateConfirm }
func (p SetIntfPwrStateConfirm) forgeBody() ([]byte, error) {
	w := wire.NewWriter(wire.MACLen + 1)
	w.MAC(p.InterfaceAddress)
	w.U8(p.ReasonCode)
	return w.Bytes(), nil
}

func parseSetIntfPwrStateConfirm(body []byte) (Primitive, error) {
	if len(body) != wire.MACLen+1 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	reason, _ := r.U8()
	return SetIntfPwrStateConfirm{InterfaceAddress: mac, ReasonCode: reason}, nil
}

// GetIntfPwrStateRequest asks the AL for one interface's current power
// state.
type GetIntfPwrStateRequest struct {
	InterfaceAddress wire.MAC
}

func (GetIntfPwrStateRequest) Type() Type { return TypeGetIntfPwrStateRequest }
func (p GetIntfPwrStateRequest) forgeBody() ([]byte, error) {
	w := wire.NewWriter(wire.MACLen)
	w.MAC(p.InterfaceAddress)
	return w.Bytes(), nil
}

func parseGetIntfPwrStateRequest(body []byte) (Primitive, error) {
	if len(body) != wire.MACLen {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	return GetIntfPwrStateRequest{InterfaceAddress: mac}, nil
}

// GetIntfPwrStateResponse answers GetIntfPwrStateRequest.
type GetIntfPwrStateResponse struct {
	InterfaceAddress wire.MAC
	PowerState       PowerState
}

func (GetIntfPwrStateResponse) Type() Type { return TypeGetIntfPwrStateResponse }
func (p GetIntfPwrStateResponse) forgeBody() ([]byte, error) {
	w := wire.NewWriter(wire.MACLen + 1)
	w.MAC(p.InterfaceAddress)
	w.U8(byte(p.PowerState))
	return w.Bytes(), nil
}

func parseGetIntfPwrStateResponse(body []byte) (Primitive, error) {
	if len(body) != wire.MACLen+1 {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	state, _ := r.U8()
	return GetIntfPwrStateResponse{InterfaceAddress: mac, PowerState: PowerState(state)}, nil
}
