package datamodel

import (
	"github.com/google/uuid"

	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

// RFBand is a bitmask of WSC radio-frequency bands a WSCDeviceData entry
// applies to.
type RFBand byte

const (
	RFBand24GHz RFBand = 1 << 0
	RFBand5GHz  RFBand = 1 << 1
	RFBand60GHz RFBand = 1 << 2
)

// WSCDeviceData is the device data the registrar/controller sends out
// through WSC for one configured band, grounded on struct wscDeviceData
// (al_datamodel.h).
type WSCDeviceData struct {
	BSSID            wire.MAC
	DeviceName       string
	ManufacturerName string
	ModelName        string
	ModelNumber      string
	SerialNumber     string
	UUID             uuid.UUID
	RFBands          RFBand
	SSID             string
	AuthTypes        uint16
	EncryptionTypes  uint16
	Key              []byte
}

func (w WSCDeviceData) configured() bool {
	return !w.BSSID.IsZero()
}

// registrar is the discovered/configured Multi-AP controller or 1905.1
// AP-Autoconfiguration Registrar: a singleton, since there can only be one
// per network.
type registrar struct {
	alMac   wire.MAC
	present bool
	isMAP   bool
	wscData [3]WSCDeviceData
}

// SetRegistrar records alMac as the network's controller/registrar. isMAP
// distinguishes a Multi-AP Controller from a plain 1905.1 AP-Autoconfiguration
// Registrar. wscData holds up to 3 per-band WSC device-data entries (one per
// RFBand24GHz/RFBand5GHz/RFBand60GHz slot, unconfigured slots left zero),
// mirroring the fixed 3-slot array in the original registrar struct.
func (m *Model) SetRegistrar(alMac wire.MAC, isMAP bool, wscData [3]WSCDeviceData) {
	m.registrar = registrar{alMac: alMac, present: true, isMAP: isMAP, wscData: wscData}
}

// ClearRegistrar drops the current registrar/controller assignment, if any.
func (m *Model) ClearRegistrar() {
	m.registrar = registrar{}
}

// Registrar returns the network's controller/registrar AL MAC, its
// Multi-AP-ness, and its configured WSC device data, or ok=false if no
// registrar has been configured or discovered yet.
func (m *Model) Registrar() (alMac wire.MAC, isMAP bool, wscData [3]WSCDeviceData, ok bool) {
	if !m.registrar.present {
		return wire.MAC{}, false, [3]WSCDeviceData{}, false
	}
	return m.registrar.alMac, m.registrar.isMAP, m.registrar.wscData, true
}

// RegistrarIsLocal reports whether the local device is itself the
// controller/registrar. With no local device set, this is always false,
// matching registrarIsLocal's documented contract.
func (m *Model) RegistrarIsLocal() bool {
	return m.Local != nil && m.registrar.present && m.registrar.alMac == m.Local.ALMac
}

// ConfiguredWSCBands returns the RFBands of every non-empty WSCDeviceData
// slot in the current registrar assignment.
func (m *Model) ConfiguredWSCBands() []RFBand {
	if !m.registrar.present {
		return nil
	}
	var out []RFBand
	for _, w := range m.registrar.wscData {
		if w.configured() {
			out = append(out, w.RFBands)
		}
	}
	return out
}

// SupportsAPAutoconfig reports whether dev has advertised the Multi-AP
// Controller role via its SupportedService TLV, making it eligible to act
// as the network's registrar/controller.
func (d *Device) SupportsAPAutoconfig() bool {
	if d.SupportedService == nil {
		return false
	}
	for _, s := range d.SupportedService.Services {
		if s == tlv.ServiceTypeMultiAPController {
			return true
		}
	}
	return false
}
