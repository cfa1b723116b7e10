package main

import (
	"fmt"

	"github.com/bit4id/siaep7/card"
	"github.com/bit4id/siaep7/config"
	"github.com/bit4id/siaep7/reader"
)

var manager = card.NewManager(reader.NewPCSC())

// resolveReader looks up readerName in the loaded configuration. An
// empty readerName falls back to slot 0 and no PIN whether or not a
// configuration was loaded — the common case for a single-reader test
// bench. It does not initialize the slot; initSlot does that.
func resolveReader(readerName string) (*config.ReaderConfig, error) {
	if readerName == "" {
		return &config.ReaderConfig{Slot: 0}, nil
	}
	if currentConfig == nil || argConfig == "" {
		return nil, fmt.Errorf("--reader given but no --config was loaded")
	}
	return currentConfig.Reader(readerName)
}

func initSlot(rc *config.ReaderConfig) error {
	return manager.Initialize(rc.Slot)
}
