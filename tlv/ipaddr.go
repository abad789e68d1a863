package tlv

import "github.com/broadband-mesh/al1905/wire"

func init() {
	register(TypeIPv4, parseIPv4)
	register(TypeIPv6, parseIPv6)
}

// IPAddrType is the 1-byte address-assignment-type enumeration shared by
// IPv4 and IPv6 entries.
type IPAddrType byte

const (
	IPAddrTypeUnknown IPAddrType = 0x00
	IPAddrTypeDHCP     IPAddrType = 0x01
	IPAddrTypeStatic   IPAddrType = 0x02
	IPAddrTypeSLAAC    IPAddrType = 0x03 // IPv6 only
)

// IPv4Address is one address entry: its assignment type, the address
// itself, and (for DHCP) the server that assigned it.
type IPv4Address struct {
	Type       IPAddrType
	Address    [4]byte
	DHCPServer [4]byte
}

// IPv4Interface lists the addresses configured on one local interface.
type IPv4Interface struct {
	MAC       wire.MAC
	Addresses []IPv4Address
}

// IPv4 reports the IPv4 configuration of every local interface.
type IPv4 struct {
	Interfaces []IPv4Interface
}

func (IPv4) Type() Type { return TypeIPv4 }

func (t IPv4) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Interfaces)))
	for _, iface := range t.Interfaces {
		w.MAC(iface.MAC)
		w.U8(byte(len(iface.Addresses)))
		for _, a := range iface.Addresses {
			w.U8(byte(a.Type))
			w.N(a.Address[:])
			w.N(a.DHCPServer[:])
		}
	}
	return w.Bytes(), nil
}

func parseIPv4(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return IPv4{}, nil
	}
	r := wire.NewReader(body)
	ifaceCount, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	ifaces := make([]IPv4Interface, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		addrCount, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		addrs := make([]IPv4Address, 0, addrCount)
		for j := 0; j < int(addrCount); j++ {
			typ, ok := r.U8()
			if !ok {
				return nil, ErrShortBuffer
			}
			addr, ok := r.N(4)
			if !ok {
				return nil, ErrShortBuffer
			}
			server, ok := r.N(4)
			if !ok {
				return nil, ErrShortBuffer
			}
			var a IPv4Address
			a.Type = IPAddrType(typ)
			copy(a.Address[:], addr)
			copy(a.DHCPServer[:], server)
			addrs = append(addrs, a)
		}
		ifaces = append(ifaces, IPv4Interface{MAC: mac, Addresses: addrs})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return IPv4{Interfaces: ifaces}, nil
}

// IPv6Address is one address entry: its assignment type, the address
// itself, and its origin (router or DHCPv6 server).
type IPv6Address struct {
	Type    IPAddrType
	Address [16]byte
	Origin  [16]byte
}

// IPv6Interface lists the addresses configured on one local interface.
type IPv6Interface struct {
	MAC            wire.MAC
	LinkLocal      [16]byte
	Addresses      []IPv6Address
}

// IPv6 reports the IPv6 configuration of every local interface.
type IPv6 struct {
	Interfaces []IPv6Interface
}

func (IPv6) Type() Type { return TypeIPv6 }

func (t IPv6) forgeBody(ForgeOptions) ([]byte, error) {
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Interfaces)))
	for _, iface := range t.Interfaces {
		w.MAC(iface.MAC)
		w.N(iface.LinkLocal[:])
		w.U8(byte(len(iface.Addresses)))
		for _, a := range iface.Addresses {
			w.U8(byte(a.Type))
			w.N(a.Address[:])
			w.N(a.Origin[:])
		}
	}
	return w.Bytes(), nil
}

func parseIPv6(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return IPv6{}, nil
	}
	r := wire.NewReader(body)
	ifaceCount, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	ifaces := make([]IPv6Interface, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		linkLocal, ok := r.N(16)
		if !ok {
			return nil, ErrShortBuffer
		}
		addrCount, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		addrs := make([]IPv6Address, 0, addrCount)
		for j := 0; j < int(addrCount); j++ {
			typ, ok := r.U8()
			if !ok {
				return nil, ErrShortBuffer
			}
			addr, ok := r.N(16)
			if !ok {
				return nil, ErrShortBuffer
			}
			origin, ok := r.N(16)
			if !ok {
				return nil, ErrShortBuffer
			}
			var a IPv6Address
			a.Type = IPAddrType(typ)
			copy(a.Address[:], addr)
			copy(a.Origin[:], origin)
			addrs = append(addrs, a)
		}
		var entry IPv6Interface
		entry.MAC = mac
		copy(entry.LinkLocal[:], linkLocal)
		entry.Addresses = addrs
		ifaces = append(ifaces, entry)
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return IPv6{Interfaces: ifaces}, nil
}
