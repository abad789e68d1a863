package extension

import (
	"errors"
	"testing"

	"github.com/broadband-mesh/al1905/cmdu"
	"github.com/broadband-mesh/al1905/datamodel"
	"github.com/broadband-mesh/al1905/tlv"
	"github.com/broadband-mesh/al1905/wire"
)

func mac(b byte) wire.MAC { return wire.MAC{0x02, 0, 0, 0, 0, b} }

func TestRegisterCMDUExtensionIsIdempotentByName(t *testing.T) {
	r := NewRegistry()
	var calls int
	r.RegisterCMDUExtension("bbf", func(*datamodel.Model, wire.MAC, *cmdu.CMDU) error { calls++; return nil }, nil)
	r.RegisterCMDUExtension("bbf", func(*datamodel.Model, wire.MAC, *cmdu.CMDU) error { calls += 10; return nil }, nil)

	c := &cmdu.CMDU{}
	if err := r.ProcessCMDUExtensions(nil, mac(1), c); err != nil {
		t.Fatalf("ProcessCMDUExtensions: %v", err)
	}
	if calls != 10 {
		t.Fatalf("expected the second registration to replace the first, got calls=%d", calls)
	}
	if len(r.cmduGroups) != 1 {
		t.Fatalf("expected exactly one registered group, got %d", len(r.cmduGroups))
	}
}

func TestProcessCMDUExtensionsPropagatesGroupError(t *testing.T) {
	r := NewRegistry()
	wantErr := errors.New("boom")
	r.RegisterCMDUExtension("bbf", func(*datamodel.Model, wire.MAC, *cmdu.CMDU) error { return wantErr }, nil)

	err := r.ProcessCMDUExtensions(nil, mac(1), &cmdu.CMDU{})
	var groupErr *GroupError
	if !errors.As(err, &groupErr) {
		t.Fatalf("expected a *GroupError, got %v", err)
	}
	if groupErr.Name != "bbf" || !errors.Is(err, wantErr) {
		t.Fatalf("expected group name bbf wrapping %v, got %+v", wantErr, groupErr)
	}
}

func TestSendCMDUExtensionsAppendsTLVs(t *testing.T) {
	r := NewRegistry()
	r.RegisterCMDUExtension("bbf", nil, func(_ *datamodel.Model, c *cmdu.CMDU) error {
		c.TLVs = append(c.TLVs, tlv.VendorSpecific{OUI: [3]byte{0x00, 0x25, 0x6D}, Body: []byte{1}})
		return nil
	})
	c := &cmdu.CMDU{}
	if err := r.SendCMDUExtensions(nil, c); err != nil {
		t.Fatalf("SendCMDUExtensions: %v", err)
	}
	if len(c.TLVs) != 1 {
		t.Fatalf("expected 1 appended TLV, got %d", len(c.TLVs))
	}
}

func TestFreeCMDUExtensionsDropsOnlyVendorSpecific(t *testing.T) {
	c := &cmdu.CMDU{TLVs: []tlv.TLV{
		tlv.VendorSpecific{OUI: [3]byte{0x00, 0x25, 0x6D}},
		tlv.EndOfMessage{},
		tlv.VendorSpecific{OUI: [3]byte{0x00, 0x25, 0x6D}},
	}}
	FreeCMDUExtensions(c)
	if len(c.TLVs) != 1 {
		t.Fatalf("expected 1 remaining non-vendor-specific TLV, got %d", len(c.TLVs))
	}
	if _, ok := c.TLVs[0].(tlv.EndOfMessage); !ok {
		t.Fatalf("expected the surviving TLV to be EndOfMessage, got %#v", c.TLVs[0])
	}
}

func TestObtainAndUpdateExtendedInfo(t *testing.T) {
	r := NewRegistry()
	r.RegisterDataModelExtension("bbf",
		func(*datamodel.Model) ([]tlv.VendorSpecific, error) {
			return []tlv.VendorSpecific{{OUI: [3]byte{0x00, 0x25, 0x6D}, Body: []byte{9}}}, nil
		},
		func(m *datamodel.Model, alMac wire.MAC, extensions []tlv.VendorSpecific) error {
			return m.SetExtensions(alMac, extensions)
		},
	)

	m := datamodel.New()
	m.UpdateNetworkDeviceInfo(mac(1), datamodel.DeviceInfoUpdate{DeviceInfo: &tlv.DeviceInformation{ALMac: mac(1)}})

	extensions, err := r.ObtainExtendedLocalInfo(m)
	if err != nil {
		t.Fatalf("ObtainExtendedLocalInfo: %v", err)
	}
	if len(extensions) != 1 {
		t.Fatalf("expected 1 extension TLV, got %d", len(extensions))
	}
	if err := r.UpdateExtendedInfo(m, mac(1), extensions); err != nil {
		t.Fatalf("UpdateExtendedInfo: %v", err)
	}
	if got := m.Extensions(mac(1)); len(got) != 1 {
		t.Fatalf("expected 1 cached extension TLV, got %d", len(got))
	}
}
