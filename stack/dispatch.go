package stack

import (
	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// findTLV returns the first TLV of type T in tlvs.
func findTLV[T tlv.TLV](tlvs []tlv.TLV) (T, bool) {
	for _, t := range tlvs {
		if v, ok := t.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// findAllTLV returns every TLV of type T in tlvs, in CMDU order.
func findAllTLV[T tlv.TLV](tlvs []tlv.TLV) []T {
	var out []T
	for _, t := range tlvs {
		if v, ok := t.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// applyCMDU folds a reassembled, rule-checked CMDU's TLVs into the Model,
// per the per-message-type dispatch spec.md §2 describes: topology
// discovery refreshes per-(interface,neighbor,remote-interface) discovery
// timestamps; topology-response, generic-PHY-response and
// higher-layer-response merge cached per-device TLVs; link-metric-response
// merges per-neighbor metrics. Unrecognized message types are a no-op here;
// their TLVs were already validated by the cmdu package's CMDU rules.
func (s *Stack) applyCMDU(localIfMAC, senderALMac wire.MAC, c *cmdu.CMDU) {
	switch c.Header.MessageType {
	case cmdu.TypeTopologyDiscovery:
		s.applyTopologyDiscovery(localIfMAC, c)
	case cmdu.TypeTopologyResponse:
		s.applyTopologyResponse(senderALMac, c)
	case cmdu.TypeGenericPhyResponse:
		s.applyGenericPhyResponse(senderALMac, c)
	case cmdu.TypeHigherLayerResponse:
		s.applyHigherLayerResponse(senderALMac, c)
	case cmdu.TypeLinkMetricResponse:
		s.applyLinkMetricResponse(c)
	}
}

func (s *Stack) applyTopologyDiscovery(localIfMAC wire.MAC, c *cmdu.CMDU) {
	alMac, ok := findTLV[tlv.ALMacAddress](c.TLVs)
	if !ok {
		return
	}
	remoteMAC, ok := findTLV[tlv.MacAddress](c.TLVs)
	if !ok {
		return
	}
	if result, _ := s.Model.UpdateDiscoveryTimestamps(localIfMAC, alMac.MAC, remoteMAC.MAC, datamodel.TimestampTopologyDiscovery); result == datamodel.UpdateError {
		s.Log.Warn("topology-discovery from %s on local interface %s: unknown local interface", alMac.MAC, localIfMAC)
	}
}

func (s *Stack) applyTopologyResponse(senderALMac wire.MAC, c *cmdu.CMDU) {
	info, ok := findTLV[tlv.DeviceInformation](c.TLVs)
	if !ok {
		s.Log.Warn("topology-response from %s: missing required device-information TLV", senderALMac)
		return
	}
	update := datamodel.DeviceInfoUpdate{DeviceInfo: &info}
	if bc, ok := findTLV[tlv.DeviceBridgingCapability](c.TLVs); ok {
		update.BridgingCapability = &bc
	}
	if n1905, ok := findTLV[tlv.Non1905NeighborDeviceList](c.TLVs); ok {
		update.Non1905Neighbors = &n1905
	}
	if neighbors := findAllTLV[tlv.NeighborDeviceList](c.TLVs); neighbors != nil {
		update.NeighborDevices = neighbors
	}
	if svc, ok := findTLV[tlv.SupportedService](c.TLVs); ok {
		update.SupportedService = &svc
	}
	if bss, ok := findTLV[tlv.APOperationalBSS](c.TLVs); ok {
		update.APOperationalBSS = &bss
	}
	if clients, ok := findTLV[tlv.AssociatedClients](c.TLVs); ok {
		update.AssociatedClients = &clients
	}
	if poweroff := findAllTLV[tlv.PowerOffInterface](c.TLVs); poweroff != nil {
		update.PowerOffInterfaces = poweroff
	}
	if l2n := findAllTLV[tlv.L2NeighborDevice](c.TLVs); l2n != nil {
		update.L2Neighbors = l2n
	}
	if err := s.Model.UpdateNetworkDeviceInfo(senderALMac, update); err != nil {
		s.Log.Warn("topology-response from %s: %v", senderALMac, err)
	}
}

func (s *Stack) applyGenericPhyResponse(senderALMac wire.MAC, c *cmdu.CMDU) {
	phy, ok := findTLV[tlv.GenericPhyDeviceInformation](c.TLVs)
	if !ok {
		return
	}
	err := s.Model.UpdateNetworkDeviceInfo(senderALMac, datamodel.DeviceInfoUpdate{GenericPhy: &phy})
	if err != nil {
		s.Log.Warn("generic-phy-response from %s: %v", senderALMac, err)
	}
}

func (s *Stack) applyHigherLayerResponse(senderALMac wire.MAC, c *cmdu.CMDU) {
	update := datamodel.DeviceInfoUpdate{}
	if di, ok := findTLV[tlv.DeviceIdentification](c.TLVs); ok {
		update.DeviceIdentification = &di
	}
	if cu, ok := findTLV[tlv.ControlURL](c.TLVs); ok {
		update.ControlURL = &cu
	}
	if v4, ok := findTLV[tlv.IPv4](c.TLVs); ok {
		update.IPv4 = &v4
	}
	if v6, ok := findTLV[tlv.IPv6](c.TLVs); ok {
		update.IPv6 = &v6
	}
	if update.DeviceIdentification == nil && update.ControlURL == nil && update.IPv4 == nil && update.IPv6 == nil {
		return
	}
	if err := s.Model.UpdateNetworkDeviceInfo(senderALMac, update); err != nil {
		s.Log.Warn("higher-layer-response from %s: %v", senderALMac, err)
	}
}

func (s *Stack) applyLinkMetricResponse(c *cmdu.CMDU) {
	for _, t := range findAllTLV[tlv.TransmitterLinkMetric](c.TLVs) {
		if err := s.Model.UpdateNetworkDeviceMetrics(t); err != nil {
			s.Log.Warn("link-metric-response: transmitter metrics for %s: %v", t.LocalALMac, err)
		}
	}
	for _, r := range findAllTLV[tlv.ReceiverLinkMetric](c.TLVs) {
		if err := s.Model.UpdateNetworkDeviceMetrics(r); err != nil {
			s.Log.Warn("link-metric-response: receiver metrics for %s: %v", r.LocalALMac, err)
		}
	}
}
