package state

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
)

var namePattern = regexp.MustCompile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func HopDistanceValidator(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("hop distance %g must be a finite, non-negative number of metres", d)
	}
	return nil
}

func NodeConfigValidator(node *NodeCfg) error {
	err := NameValidator(string(node.Id))
	if err != nil {
		return err
	}
	if err := HopDistanceValidator(node.HopDistance); err != nil {
		return fmt.Errorf("node %s: %w", node.Id, err)
	}
	if node.Beacon != nil && !node.Beacon.IsFinite() {
		return fmt.Errorf("node %s: beacon position %s is not finite", node.Id, node.Beacon)
	}
	if node.Truth != nil && !node.Truth.IsFinite() {
		return fmt.Errorf("node %s: true position %s is not finite", node.Id, node.Truth)
	}
	if node.StaleAfter < 0 {
		return fmt.Errorf("node %s: stale_after must not be negative", node.Id)
	}
	if node.Mqtt != nil {
		if node.Mqtt.Topic == "" {
			return fmt.Errorf("node %s: mqtt topic must not be empty", node.Id)
		}
		if _, err := url.Parse(node.Mqtt.Broker); err != nil || node.Mqtt.Broker == "" {
			return fmt.Errorf("node %s: invalid mqtt broker %q", node.Id, node.Mqtt.Broker)
		}
	}
	return nil
}

func NetworkConfigValidator(cfg *NetworkCfg) error {
	if err := HopDistanceValidator(cfg.HopDistance); err != nil {
		return err
	}
	seen := make([]NodeId, 0, len(cfg.Nodes))
	for _, node := range cfg.Nodes {
		if slices.Contains(seen, node.Id) {
			return fmt.Errorf("duplicate node: %s", node.Id)
		}
		seen = append(seen, node.Id)
		if err := NodeConfigValidator(&node); err != nil {
			return err
		}
	}
	if len(cfg.Graph) == 0 {
		return nil
	}
	_, err := cfg.Edges()
	return err
}
