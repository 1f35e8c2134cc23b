/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package util

import (
	"context"
	"fmt"

	"github.com/credcheck/credcheck/pkg/config"
)

// Factory provides the abstractions commands need, so they can be exercised
// in tests without touching the real filesystem or clock.
type Factory interface {
	// Context returns the root context any command should use.
	Context() context.Context
	// Clock returns a clock that provides access to the current time.
	Clock() Clock
	// HomeDir returns the credcheck configuration directory (e.g. ~/.credcheck).
	HomeDir() string
	// Configuration loads the effective configuration file.
	Configuration() (*config.Config, error)
}

// FactoryImpl implements the Factory interface.
type FactoryImpl struct {
	// HomeDirectory is the directory for all credcheck related files.
	HomeDirectory string

	// ConfigFile is the location of the configuration file. This can be
	// overridden via a CLI flag and defaults to ~/.credcheck/credcheck.yaml
	// if empty.
	ConfigFile string
}

var _ Factory = &FactoryImpl{}

func (f *FactoryImpl) Context() context.Context {
	return context.Background()
}

func (f *FactoryImpl) Clock() Clock {
	return &RealClock{}
}

func (f *FactoryImpl) HomeDir() string {
	return f.HomeDirectory
}

func (f *FactoryImpl) Configuration() (*config.Config, error) {
	cfg, err := config.LoadFromFile(f.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
