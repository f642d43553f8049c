package cmd

import (
	"os"

	"github.com/encodeous/dvhop/state"
	"github.com/goccy/go-yaml"
)

func readNetworkConfig(path string) (*state.NetworkCfg, error) {
	var cfg state.NetworkCfg
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.Expand()
	err = state.NetworkConfigValidator(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readTableSnapshot(path string) (*state.TableSnapshot, error) {
	var snap state.TableSnapshot
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
