package uhubctl

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTarget splits "HUB.PORT" (for example "1-1.4.2") at the last dot.
func ParseTarget(target string) (hub string, port int, err error) {
	i := strings.LastIndexByte(target, '.')
	if i <= 0 || i == len(target)-1 {
		return "", 0, fmt.Errorf("%w: %q (want HUB.PORT, e.g. 1-2.3)", ErrInvalidTarget, target)
	}
	hub = target[:i]
	if err := ValidatePath(hub); err != nil {
		return "", 0, err
	}
	port, err = strconv.Atoi(target[i+1:])
	if err != nil || port < 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidPortNumber, target[i+1:])
	}
	return hub, port, nil
}

// PortFromPath builds a standalone hub holding a single port from a
// "HUB.PORT" target. No uhubctl call is made.
func (c *Client) PortFromPath(target string) (*Port, error) {
	hubPath, n, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	hub, err := c.NewHub(hubPath)
	if err != nil {
		return nil, err
	}
	return hub.AddPort(n)
}
