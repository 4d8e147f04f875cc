package mcp

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/hubctl/internal/uhubctl"
)

// ValidateListInput validates ListInput fields.
func ValidateListInput(in *ListInput) error {
	if in.Hub == "" {
		return nil
	}
	if err := uhubctl.ValidatePath(in.Hub); err != nil {
		return fmt.Errorf("invalid hub: %w", err)
	}
	return nil
}

// ValidatePortStatusInput validates PortStatusInput fields.
func ValidatePortStatusInput(in *PortStatusInput) error {
	if _, _, err := uhubctl.ParseTarget(in.Port); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	return nil
}

// ValidateSetPowerInput validates SetPowerInput fields and returns the
// parsed action and delay.
func ValidateSetPowerInput(in *SetPowerInput) (app.Action, time.Duration, error) {
	if _, _, err := uhubctl.ParseTarget(in.Port); err != nil {
		return "", 0, fmt.Errorf("invalid port: %w", err)
	}
	action, err := app.ParseAction(in.State)
	if err != nil {
		return "", 0, fmt.Errorf("invalid state: %w", err)
	}
	delay, err := parseDelay(in.Delay)
	if err != nil {
		return "", 0, err
	}
	if delay > 0 && action != app.ActionCycle {
		return "", 0, fmt.Errorf("delay only applies to state=cycle")
	}
	return action, delay, nil
}
