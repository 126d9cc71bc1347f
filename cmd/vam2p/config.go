package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/vam2p/prolog/pkg/engine"
)

// loadOptions reads path (if non-empty) as JSON into a loosely-typed map,
// then uses mapstructure's weakly-typed decoding to populate engine.Options
// on top of engine.DefaultOptions. An empty path returns the defaults
// unchanged, since a config file is optional, never required.
func loadOptions(path string) (engine.Options, error) {
	opts := engine.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config: %w", err)
	}
	var contents map[string]interface{}
	if err := json.Unmarshal(raw, &contents); err != nil {
		return opts, fmt.Errorf("parse config: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
		TagName:          "mapstructure",
	})
	if err != nil {
		return opts, fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(contents); err != nil {
		return opts, fmt.Errorf("decode config: %w", err)
	}
	return opts, nil
}

// buildEngine reads the "config" option (if set) and constructs a fresh
// Engine from it. The engine keeps the default logger engine.New gives
// it; nothing here directs log output anywhere.
func buildEngine(options map[string]string) (*engine.Engine, error) {
	opts, err := loadOptions(options["config"])
	if err != nil {
		return nil, err
	}
	e, err := engine.New(opts)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return e, nil
}
