// Package lldp implements the trimmed Link Layer Discovery Protocol profile
// this stack uses for bridge discovery: exactly one chassis-ID, one
// port-ID, and one time-to-live TLV, each carrying a 6-byte MAC (chassis,
// port) or a 2-byte value (TTL), followed by an end-of-LLDPPDU TLV.
//
// Grounded on 1905_lldp.c/lldp_tlvs.c and on the wire package's cursor-based
// Reader/Writer (itself grounded on packet_tools.h), following the same
// parse-then-validate-cardinality shape as cmdu.Parse.
package lldp

import (
	"errors"

	"github.com/broadband-mesh/al1905/wire"
)

// lldpType is the 7-bit LLDP TLV type discriminator.
type lldpType byte

const (
	typeEndOfLLDPPDU lldpType = 0
	typeChassisID    lldpType = 1
	typePortID       lldpType = 2
	typeTTL          lldpType = 3
)

// ChassisIDSubtypeMAC and PortIDSubtypeMAC are the only subtypes this
// profile emits or accepts.
const (
	ChassisIDSubtypeMAC byte = 4
	PortIDSubtypeMAC    byte = 3
)

// TimeToLiveDefault is TIME_TO_LIVE_TLV_1905_DEFAULT_VALUE (seconds).
const TimeToLiveDefault uint16 = 180

// Errors returned by Parse.
var (
	ErrShortBuffer     = errors.New("lldp: buffer shorter than declared TLV length")
	ErrWrongCardinality = errors.New("lldp: PDU does not contain exactly one chassis-ID, port-ID, and TTL TLV")
	ErrWrongSubtype    = errors.New("lldp: chassis-ID/port-ID TLV has an unsupported subtype")
	ErrWrongLength     = errors.New("lldp: TLV body length does not match its fixed size")
)

// PDU is the trimmed 1905 LLDP profile: chassis and port MAC, plus the
// advertised time-to-live.
type PDU struct {
	ChassisID wire.MAC
	PortID    wire.MAC
	TTL       uint16
}

// Forge serializes p as chassis-ID, port-ID, TTL, end-of-LLDPPDU, in that
// order.
func Forge(p PDU) []byte {
	w := wire.NewWriter(2*(2+wire.MACLen+1) + 4 + 2)
	writeHeader(w, typeChassisID, wire.MACLen+1)
	w.U8(ChassisIDSubtypeMAC)
	w.MAC(p.ChassisID)
	writeHeader(w, typePortID, wire.MACLen+1)
	w.U8(PortIDSubtypeMAC)
	w.MAC(p.PortID)
	writeHeader(w, typeTTL, 2)
	w.U16(p.TTL)
	writeHeader(w, typeEndOfLLDPPDU, 0)
	return w.Bytes()
}

func writeHeader(w *wire.Writer, t lldpType, length int) {
	b0 := byte(t)<<1 | byte((length>>8)&0x01)
	b1 := byte(length & 0xFF)
	w.U8(b0)
	w.U8(b1)
}

func readHeader(r *wire.Reader) (lldpType, int, bool) {
	b0, ok := r.U8()
	if !ok {
		return 0, 0, false
	}
	b1, ok := r.U8()
	if !ok {
		return 0, 0, false
	}
	t := lldpType(b0 >> 1)
	length := (int(b0&0x01) << 8) | int(b1)
	return t, length, true
}

// Parse decodes a trimmed LLDP PDU, rejecting anything missing the
// required chassis-ID/port-ID/TTL triple or carrying unexpected
// cardinality/subtypes.
func Parse(buf []byte) (PDU, error) {
	r := wire.NewReader(buf)
	var p PDU
	var haveChassis, havePort, haveTTL bool
	for r.Remaining() > 0 {
		t, length, ok := readHeader(r)
		if !ok {
			return PDU{}, ErrShortBuffer
		}
		if r.Remaining() < length {
			return PDU{}, ErrShortBuffer
		}
		body, _ := r.N(length)
		switch t {
		case typeEndOfLLDPPDU:
			if length != 0 {
				return PDU{}, ErrWrongLength
			}
			if !haveChassis || !havePort || !haveTTL {
				return PDU{}, ErrWrongCardinality
			}
			if r.Remaining() != 0 {
				return PDU{}, ErrWrongCardinality
			}
			return p, nil
		case typeChassisID:
			if haveChassis {
				return PDU{}, ErrWrongCardinality
			}
			mac, err := parseMACSubtype(body, ChassisIDSubtypeMAC)
			if err != nil {
				return PDU{}, err
			}
			p.ChassisID = mac
			haveChassis = true
		case typePortID:
			if havePort {
				return PDU{}, ErrWrongCardinality
			}
			mac, err := parseMACSubtype(body, PortIDSubtypeMAC)
			if err != nil {
				return PDU{}, err
			}
			p.PortID = mac
			havePort = true
		case typeTTL:
			if haveTTL {
				return PDU{}, ErrWrongCardinality
			}
			if len(body) != 2 {
				return PDU{}, ErrWrongLength
			}
			p.TTL = wire.NetworkOrder.Uint16(body)
			haveTTL = true
		default:
			// Outside this trimmed profile; ignored rather than rejected, so a
			// peer that also carries an unrelated standard LLDP TLV (e.g.
			// system description) still interoperates.
		}
	}
	return PDU{}, ErrWrongCardinality
}

func parseMACSubtype(body []byte, wantSubtype byte) (wire.MAC, error) {
	if len(body) != 1+wire.MACLen {
		return wire.MAC{}, ErrWrongLength
	}
	if body[0] != wantSubtype {
		return wire.MAC{}, ErrWrongSubtype
	}
	var m wire.MAC
	copy(m[:], body[1:])
	return m, nil
}
