package app

import (
	"strconv"

	"github.com/felixgeelhaar/hubctl/internal/uhubctl"
)

// HubReport describes a hub and its ports.
type HubReport struct {
	Path           string       `json:"path"`
	VendorID       string       `json:"vendor_id,omitempty"`
	ProductID      string       `json:"product_id,omitempty"`
	Description    string       `json:"description,omitempty"`
	USBVersion     string       `json:"usb_version,omitempty"`
	PortCount      int          `json:"port_count"`
	PowerSwitching string       `json:"power_switching,omitempty"`
	Ports          []PortReport `json:"ports"`
}

// PortReport describes one port's power state and attached device.
type PortReport struct {
	Target  string          `json:"target"`
	Hub     string          `json:"hub"`
	Port    int             `json:"port"`
	Powered bool            `json:"powered"`
	Status  string          `json:"status"`
	Flags   []string        `json:"flags,omitempty"`
	Device  *uhubctl.Device `json:"device,omitempty"`
}

// State returns "on" or "off".
func (r PortReport) State() string {
	if r.Powered {
		return "on"
	}
	return "off"
}

func newHubReport(st uhubctl.HubStatus) HubReport {
	r := HubReport{
		Path:           st.Hub.Path,
		VendorID:       st.Hub.VendorID,
		ProductID:      st.Hub.ProductID,
		Description:    st.Hub.Description,
		USBVersion:     st.Hub.USBVersion,
		PortCount:      st.Hub.PortCount,
		PowerSwitching: st.Hub.PowerSwitching,
		Ports:          make([]PortReport, 0, len(st.Ports)),
	}
	if r.PortCount == 0 {
		r.PortCount = len(st.Ports)
	}
	for _, p := range st.Ports {
		r.Ports = append(r.Ports, newPortReport(st.Hub.Path, p))
	}
	return r
}

func newPortReport(hub string, info uhubctl.PortInfo) PortReport {
	return PortReport{
		Target:  hub + "." + strconv.Itoa(info.Number),
		Hub:     hub,
		Port:    info.Number,
		Powered: info.Powered,
		Status:  info.StatusBits,
		Flags:   info.Flags,
		Device:  info.Device,
	}
}
