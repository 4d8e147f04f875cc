package uhubctl

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/felixgeelhaar/hubctl/internal/ports"
)

var hubPathPattern = regexp.MustCompile(`^[\.\d-]+$`)

// Hub is a USB hub known to uhubctl, identified by its location path
// (for example "1-1.4"). It owns an ordered list of ports whose numbers are
// unique within the hub.
type Hub struct {
	client *Client
	path   string

	mu    sync.RWMutex
	info  HubInfo
	ports []*Port
}

// ValidatePath checks that path looks like a uhubctl location such as
// "1-1.4".
func ValidatePath(path string) error {
	if !hubPathPattern.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

// NewHub creates a hub with no ports. Use DiscoverPorts or AddPort to fill
// it.
func (c *Client) NewHub(path string) (*Hub, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return &Hub{client: c, path: path, info: HubInfo{Path: path}}, nil
}

// Path returns the hub location.
func (h *Hub) Path() string {
	return h.path
}

// Info returns the descriptor last seen in a status header. Fields other
// than Path are empty until the hub has been discovered.
func (h *Hub) Info() HubInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.info
}

func (h *Hub) setInfo(info HubInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = info
}

// Ports returns the hub's ports in insertion order.
func (h *Hub) Ports() []*Port {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Port, len(h.ports))
	copy(out, h.ports)
	return out
}

// AddPort appends port n to the hub without asking uhubctl.
func (h *Hub) AddPort(n int) (*Port, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addPortLocked(n)
}

func (h *Hub) addPortLocked(n int) (*Port, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPortNumber, n)
	}
	for _, p := range h.ports {
		if p.number == n {
			return nil, fmt.Errorf("%w: hub %s port %d", ErrDuplicatePort, h.path, n)
		}
	}
	p := &Port{hub: h, number: n}
	h.ports = append(h.ports, p)
	return p, nil
}

// AddPorts adds ports first through last, inclusive. Nothing is added if
// any number in the range is invalid or already present.
func (h *Hub) AddPorts(first, last int) error {
	if first < 1 || last < first {
		return fmt.Errorf("%w: range %d-%d", ErrInvalidPortNumber, first, last)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range h.ports {
		if p.number >= first && p.number <= last {
			return fmt.Errorf("%w: hub %s port %d", ErrDuplicatePort, h.path, p.number)
		}
	}
	for n := first; n <= last; n++ {
		if _, err := h.addPortLocked(n); err != nil {
			return err
		}
	}
	return nil
}

// FindPort returns port n, or nil if the hub has no such port.
func (h *Hub) FindPort(n int) *Port {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.ports {
		if p.number == n {
			return p
		}
	}
	return nil
}

// PortStatuses runs `uhubctl -l PATH` and returns the parsed port lines.
func (h *Hub) PortStatuses(ctx context.Context) ([]PortInfo, error) {
	lines, err := h.client.query(ctx, "-l", h.path)
	if err != nil {
		return nil, err
	}
	info, infos, ok := hubPorts(lines, h.path)
	if ok {
		h.setInfo(info)
	}
	return infos, nil
}

// DiscoverPorts asks uhubctl which ports the hub has and appends the ones
// not already present, in the order uhubctl lists them.
func (h *Hub) DiscoverPorts(ctx context.Context) error {
	infos, err := h.PortStatuses(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	added := 0
	for _, info := range infos {
		if h.findLocked(info.Number) != nil {
			continue
		}
		if _, err := h.addPortLocked(info.Number); err != nil {
			return err
		}
		added++
	}

	h.client.logger.Debug(ctx, "discovered ports",
		ports.F("hub", h.path),
		ports.F("added", added),
		ports.F("total", len(h.ports)))
	return nil
}

func (h *Hub) findLocked(n int) *Port {
	for _, p := range h.ports {
		if p.number == n {
			return p
		}
	}
	return nil
}

func (h *Hub) String() string {
	return "USB Hub " + h.path
}
