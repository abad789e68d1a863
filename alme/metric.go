package alme

import (
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

func init() {
	registerRequest(TypeGetMetricRequest, parseGetMetricRequest)
	registerResponse(TypeGetMetricResponse, parseGetMetricResponse)
	registerRequest(TypeCustomCommand, parseCustomCommandRequest)
	registerResponse(TypeCustomCommand, parseCustomCommandResponse)
}

// GetMetricRequest asks for the link metrics of every remote interface
// connected to the given local interface.
type GetMetricRequest struct {
	InterfaceAddress wire.MAC
}

func (GetMetricRequest) Type() Type { return TypeGetMetricRequest }
func (p GetMetricRequest) forgeBody() ([]byte, error) {
	w := wire.NewWriter(wire.MACLen)
	w.MAC(p.InterfaceAddress)
	return w.Bytes(), nil
}

func parseGetMetricRequest(body []byte) (Primitive, error) {
	if len(body) != wire.MACLen {
		return nil, ErrLengthMismatch
	}
	r := wire.NewReader(body)
	mac, _ := r.MAC()
	return GetMetricRequest{InterfaceAddress: mac}, nil
}

// MetricEntry is one (neighbor device, local interface) pair's link
// metrics, embedding the standard transmitter/receiver link-metric TLVs
// (each describing a single connected interface, n=1 per IEEE Std
// 1905.1-2013 Tables 6-17/6-19).
type MetricEntry struct {
	NeighborDevAddress wire.MAC
	LocalIntfAddress   wire.MAC
	Bridged            bool
	Transmitter        tlv.TransmitterLinkMetric
	Receiver           tlv.ReceiverLinkMetric
}

// GetMetricResponse answers GetMetricRequest with one MetricEntry per
// connected remote interface.
type GetMetricResponse struct {
	Metrics []MetricEntry
}

func (GetMetricResponse) Type() Type { return TypeGetMetricResponse }

func (p GetMetricResponse) forgeBody() ([]byte, error) {
	if len(p.Metrics) > 0xFF {
		return nil, ErrLengthMismatch
	}
	w := wire.NewWriter(1)
	w.U8(byte(len(p.Metrics)))
	for _, m := range p.Metrics {
		w.MAC(m.NeighborDevAddress)
		w.MAC(m.LocalIntfAddress)
		w.U8(boolByte(m.Bridged))
		txBytes, err := tlv.Forge(m.Transmitter, tlv.ForgeOptions{})
		if err != nil {
			return nil, err
		}
		rxBytes, err := tlv.Forge(m.Receiver, tlv.ForgeOptions{})
		if err != nil {
			return nil, err
		}
		w.N(txBytes)
		w.N(rxBytes)
	}
	return w.Bytes(), nil
}

func parseGetMetricResponse(body []byte) (Primitive, error) {
	r := wire.NewReader(body)
	count, ok := r.U8()
	if !ok {
		return nil, ErrShortBuffer
	}
	metrics := make([]MetricEntry, 0, count)
	for i := 0; i < int(count); i++ {
		neighbor, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		local, ok := r.MAC()
		if !ok {
			return nil, ErrShortBuffer
		}
		bridged, ok := r.U8()
		if !ok {
			return nil, ErrShortBuffer
		}
		txVal, n, err := tlv.Parse(r.Bytes(), tlv.ParseOptions{})
		if err != nil {
			return nil, err
		}
		if !r.Skip(n) {
			return nil, ErrShortBuffer
		}
		tx, ok := txVal.(tlv.TransmitterLinkMetric)
		if !ok {
			return nil, ErrLengthMismatch
		}
		rxVal, n, err := tlv.Parse(r.Bytes(), tlv.ParseOptions{})
		if err != nil {
			return nil, err
		}
		if !r.Skip(n) {
			return nil, ErrShortBuffer
		}
		rx, ok := rxVal.(tlv.ReceiverLinkMetric)
		if !ok {
			return nil, ErrLengthMismatch
		}
		metrics = append(metrics, MetricEntry{
			NeighborDevAddress: neighbor,
			LocalIntfAddress:   local,
			Bridged:            bridged != 0,
			Transmitter:        tx,
			Receiver:           rx,
		})
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return GetMetricResponse{Metrics: metrics}, nil
}

// CustomCommandRequest carries a 1-byte vendor-defined command code; used
// for operations this codec doesn't otherwise model (reserved alme_type
// 0xf0, per 1905_alme.c).
type CustomCommandRequest struct {
	Command byte
}

func (CustomCommandRequest) Type() Type { return TypeCustomCommand }
func (p CustomCommandRequest) forgeBody() ([]byte, error) { return []byte{p.Command}, nil }

func parseCustomCommandRequest(body []byte) (Primitive, error) {
	if len(body) != 1 {
		return nil, ErrLengthMismatch
	}
	return CustomCommandRequest{Command: body[0]}, nil
}

// CustomCommandResponse carries an opaque, length-prefixed reply to a
// CustomCommandRequest.
type CustomCommandResponse struct {
	Data []byte
}

func (CustomCommandResponse) Type() Type { return TypeCustomCommand }
func (p CustomCommandResponse) forgeBody() ([]byte, error) {
	if len(p.Data) > 0xFFFF {
		return nil, ErrLengthMismatch
	}
	w := wire.NewWriter(2 + len(p.Data))
	w.U16(uint16(len(p.Data)))
	w.N(p.Data)
	return w.Bytes(), nil
}

func parseCustomCommandResponse(body []byte) (Primitive, error) {
	r := wire.NewReader(body)
	length, ok := r.U16()
	if !ok {
		return nil, ErrShortBuffer
	}
	data, ok := r.N(int(length))
	if !ok {
		return nil, ErrShortBuffer
	}
	if r.Remaining() != 0 {
		return nil, ErrLengthMismatch
	}
	return CustomCommandResponse{Data: data}, nil
}
