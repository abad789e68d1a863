package tlv

import "github.com/broadband-mesh/al1905/wire"

func init() {
	register(TypeL2NeighborDevice, parseL2NeighborDevice)
}

// L2NeighborEntry is one non-1905 neighbor discovered on a local interface's
// L2 segment, along with the behind-it MAC addresses observed reaching that
// neighbor (e.g. downstream of a non-1905 bridge).
type L2NeighborEntry struct {
	MAC           wire.MAC
	BehindMACs    []wire.MAC
}

// L2NeighborInterfaceEntry lists the L2 neighbors seen on one local
// interface.
type L2NeighborInterfaceEntry struct {
	MAC       wire.MAC
	Neighbors []L2NeighborEntry
}

// L2NeighborDevice reports the sender's L2-layer neighbor topology, three
// levels deep: interface -> neighbor -> behind-MAC list.
type L2NeighborDevice struct {
	Interfaces []L2NeighborInterfaceEntry
}

func (L2NeighborDevice) Type() Type { return TypeL2NeighborDevice }

func (t L2NeighborDevice) forgeBody(ForgeOptions) ([]byte, error) {
	if len(t.Interfaces) > 0xFF {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(t.Interfaces)))
	for _, iface := range t.Interfaces {
		if len(iface.Neighbors) > 0xFFFF {
			return nil, ErrTooLong
		}
		w.MAC(iface.MAC)
		w.U16(uint16(len(iface.Neighbors)))
		for _, n := range iface.Neighbors {
			if len(n.BehindMACs) > 0xFFFF {
				return nil, ErrTooLong
			}
			w.MAC(n.MAC)
			w.U16(uint16(len(n.BehindMACs)))
			for _, behind := range n.BehindMACs {
				w.MAC(behind)
			}
		}
	}
	return w.Bytes(), nil
}

func parseL2NeighborDevice(body []byte, opts ParseOptions) (TLV, error) {
	if opts.FixBrokenTLVs && len(body) == 0 {
		return L2NeighborDevice{}, nil
	}
	r := wire.NewReader(body)
	ifaceCount, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	ifaces := make([]L2NeighborInterfaceEntry, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		mac, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		neighborCount, ok := r.U16()
		if !ok {
			return nil, ErrShortBuffer
		}
		neighbors := make([]L2NeighborEntry, 0, neighborCount)
		for j := 0; j < int(neighborCount); j++ {
			nmac, ok := r.MAC()
			if !ok {
				return nil, ErrShortBuffer
			}
			behindCount, ok := r.U16()
			if !ok {
				return nil, ErrShortBuffer
			}
			behind := make([]wire.MAC, 0, behindCount)
			for k := 0; k < int(behindCount); k++ {
				bmac, ok := r.MAC()
				if !ok {
					return nil, ErrShortBuffer
				}
				behind = append(behind, bmac)
			}
			neighbors = append(neighbors, L2NeighborEntry{MAC: nmac, BehindMACs: behind})
		}
		ifaces = append(ifaces, L2NeighborInterfaceEntry{MAC: mac, Neighbors: neighbors})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return L2NeighborDevice{Interfaces: ifaces}, nil
}
