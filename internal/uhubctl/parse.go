package uhubctl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hubLinePattern  = regexp.MustCompile(`^(Current|New) status for hub ([\.\d-]+)(?: \[(.*)\])?`)
	hubAttrPattern  = regexp.MustCompile(`^([0-9a-f]{4}):([0-9a-f]{4})(?: (.*?))?, USB (\d+\.\d+), (\d+) ports?, (\w+)$`)
	portLinePattern = regexp.MustCompile(`^  Port (\d+): ([0-9a-f]{4})(.*)$`)
	portRestPattern = regexp.MustCompile(`^(.*?)(?:\s*\[([0-9a-f]{4}):([0-9a-f]{4})(?: (.*))?\])?$`)
)

// HubInfo is what uhubctl prints about a hub in its status header.
// Everything but Path is optional and empty when the header had no
// descriptor suffix.
type HubInfo struct {
	Path           string `json:"path"`
	VendorID       string `json:"vendor_id,omitempty"`
	ProductID      string `json:"product_id,omitempty"`
	Description    string `json:"description,omitempty"`
	USBVersion     string `json:"usb_version,omitempty"`
	PortCount      int    `json:"port_count,omitempty"`
	PowerSwitching string `json:"power_switching,omitempty"`
}

// Device identifies whatever is plugged into a port.
type Device struct {
	VendorID    string `json:"vendor_id"`
	ProductID   string `json:"product_id"`
	Description string `json:"description,omitempty"`
}

// ID returns "vvvv:pppp".
func (d Device) ID() string {
	return d.VendorID + ":" + d.ProductID
}

func (d Device) String() string {
	if d.Description == "" {
		return d.ID()
	}
	return d.ID() + " " + d.Description
}

// PortInfo is one parsed "  Port N: XXXX flags [device]" line.
type PortInfo struct {
	Number     int      `json:"number"`
	StatusBits string   `json:"status_bits"`
	Flags      []string `json:"flags,omitempty"`
	Powered    bool     `json:"powered"`
	Device     *Device  `json:"device,omitempty"`
}

// HubStatus groups a hub header with the port lines that follow it.
type HubStatus struct {
	Hub   HubInfo    `json:"hub"`
	Ports []PortInfo `json:"ports"`
}

// ParseHubLine parses a "Current status for hub ..." or "New status for
// hub ..." header. current is false for "New" headers printed after an
// action.
func ParseHubLine(line string) (info HubInfo, current bool, ok bool) {
	m := hubLinePattern.FindStringSubmatch(line)
	if m == nil {
		return HubInfo{}, false, false
	}
	info.Path = m[2]
	if a := hubAttrPattern.FindStringSubmatch(m[3]); a != nil {
		info.VendorID = a[1]
		info.ProductID = a[2]
		info.Description = strings.TrimSpace(a[3])
		info.USBVersion = a[4]
		info.PortCount, _ = strconv.Atoi(a[5])
		info.PowerSwitching = a[6]
	}
	return info, m[1] == "Current", true
}

// ParsePortLine parses a single port status line.
func ParsePortLine(line string) (PortInfo, bool) {
	m := portLinePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return PortInfo{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return PortInfo{}, false
	}
	info := PortInfo{Number: n, StatusBits: m[2]}

	rest := portRestPattern.FindStringSubmatch(strings.TrimSpace(m[3]))
	if flags := strings.Fields(rest[1]); len(flags) > 0 {
		info.Flags = flags
	}
	for _, f := range info.Flags {
		if f == "power" {
			info.Powered = true
			break
		}
	}
	if rest[2] != "" {
		info.Device = &Device{
			VendorID:    rest[2],
			ProductID:   rest[3],
			Description: strings.TrimSpace(rest[4]),
		}
	}
	return info, true
}

// ParseHubs returns the hubs named by "Current status" headers, in order of
// appearance. Headers repeated for the same path are reported once.
func ParseHubs(lines []string) []HubInfo {
	var hubs []HubInfo
	seen := make(map[string]bool)
	for _, line := range lines {
		info, current, ok := ParseHubLine(line)
		if !ok || !current || seen[info.Path] {
			continue
		}
		seen[info.Path] = true
		hubs = append(hubs, info)
	}
	return hubs
}

// ParsePorts returns every port line, in order of appearance.
func ParsePorts(lines []string) []PortInfo {
	var ports []PortInfo
	for _, line := range lines {
		if info, ok := ParsePortLine(line); ok {
			ports = append(ports, info)
		}
	}
	return ports
}

// ParseStatus splits uhubctl output into per-hub blocks. Only "Current"
// blocks are returned; the "New status" block uhubctl prints after an
// action is skipped. Port lines before the first header are dropped.
func ParseStatus(lines []string) []HubStatus {
	var (
		out     []HubStatus
		current *HubStatus
	)
	for _, line := range lines {
		if info, isCurrent, ok := ParseHubLine(line); ok {
			if current != nil {
				out = append(out, *current)
				current = nil
			}
			if isCurrent {
				current = &HubStatus{Hub: info}
			}
			continue
		}
		if current == nil {
			continue
		}
		if info, ok := ParsePortLine(line); ok {
			current.Ports = append(current.Ports, info)
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// hubPorts returns the port lines of hub's "Current" block. uhubctl also
// prints the companion of a USB3 dual hub, so lines from other blocks must
// not be used. Output without any hub header is taken as hub's own.
func hubPorts(lines []string, hub string) (HubInfo, []PortInfo, bool) {
	blocks := ParseStatus(lines)
	if len(blocks) == 0 {
		return HubInfo{}, ParsePorts(lines), false
	}
	for _, b := range blocks {
		if b.Hub.Path == hub {
			return b.Hub, b.Ports, true
		}
	}
	return HubInfo{}, nil, false
}

// findPort returns the line for port n. A missing line is an explicit
// failure so callers never report a default state.
func findPort(ports []PortInfo, hub string, n int) (PortInfo, error) {
	for _, p := range ports {
		if p.Number == n {
			return p, nil
		}
	}
	return PortInfo{}, fmt.Errorf("%w: hub %s port %d", ErrStatusUnavailable, hub, n)
}
