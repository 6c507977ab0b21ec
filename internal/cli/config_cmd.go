// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jeranaias/algods/internal/config"
	"github.com/jeranaias/algods/internal/util"
)

// HandleConfig runs config show, get, set and path.
func HandleConfig(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{}, 3)
	if err != nil {
		return err
	}

	switch sub := strings.ToLower(p.Positional(0)); sub {
	case "", "show":
		return configShow(args)
	case "get":
		return configGet(args, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return ErrMissingArgument("value", "algods config set node.algod_url http://localhost:4001")
		}
		return configSet(args, p.Positional(1), p.Positional(2))
	case "path":
		return configPath(args)
	default:
		return NewValidationErrorWithExample("config subcommand", sub, "expected show, get, set or path", "algods config get node.algod_url")
	}
}

// configFile is the file config set writes: --config when given,
// otherwise the default location.
func configFile(args Args) (string, error) {
	if args.ConfigPath != "" {
		return util.ExpandHome(args.ConfigPath), nil
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	return path, nil
}

func checkKey(key string) error {
	if key == "" {
		return ErrMissingArgument("key", "algods config get node.algod_url")
	}
	if !slices.Contains(config.GetAllKeys(), strings.ToLower(key)) {
		return NewNotFoundError("config key", key)
	}
	return nil
}

func configShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	safe := cfg.Redacted()
	return emit(args, "config", safe, func() {
		t := NewTable("KEY", "VALUE")
		for _, key := range config.GetAllKeys() {
			v, err := safe.Get(key)
			if err != nil {
				continue
			}
			t.Append(key, fmt.Sprint(v))
		}
		t.Render(stdout)
	})
}

func configGet(args Args, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Get(key)
	if err != nil {
		return NewNotFoundError("config key", key)
	}
	return emit(args, "config", ConfigValueData{Key: key, Value: v}, func() {
		fmt.Fprintln(stdout, v)
	})
}

// configSet edits the file itself; environment overrides are not applied
// so they never end up persisted.
func configSet(args Args, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	path, err := configFile(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if util.FileExists(path) {
		load := config.LoadTOML
		if strings.HasSuffix(path, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	save := config.SaveTOML
	if strings.HasSuffix(path, ".json") {
		save = config.SaveJSON
	}
	if err := save(cfg, path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	stored, _ := cfg.Redacted().Get(key)
	return emit(args, "config", ConfigValueData{Key: key, Value: stored, Path: path}, func() {
		fmt.Fprintf(stdout, "%s %s = %v\n", SuccessStyle.Render("[OK]"), key, stored)
		fmt.Fprintln(stdout, DimStyle.Render("saved to "+path))
	})
}

func configPath(args Args) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	data := ConfigPathData{Path: path, Exists: util.FileExists(path)}
	return emit(args, "config", data, func() {
		fmt.Fprintln(stdout, path)
		if !data.Exists {
			fmt.Fprintln(stdout, DimStyle.Render("(not created yet, defaults in use)"))
		}
	})
}
