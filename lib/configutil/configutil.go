// Package configutil reads the json5 config files this repo runs on:
// config.json5 next to the CLI binary and telemetry.json5 anywhere up
// the tree. A sibling <name>.local.json5 carries per-machine overrides
// (credentials, debug toggles) and wins field by field over the
// checked-in file.
package configutil

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func unmarshalFile(name string, out any) (bool, error) {
	contents, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json5.Unmarshal(contents, out)
}

// Read loads <name>, then merges <name>.local.<ext> over it when that
// exists. os.ErrNotExist when neither file is present.
func Read[T any](name string) (T, error) {
	var config T

	found, err := unmarshalFile(name, &config)
	if err != nil {
		return config, err
	}

	var override T
	foundLocal, err := unmarshalFile(localName(name), &override)
	if err != nil {
		return config, err
	}
	if foundLocal {
		err = mergo.Merge(&config, override, mergo.WithOverride)
		if err != nil {
			return config, err
		}
		slog.Info("merged local config overrides", "file", localName(name))
	}

	if !found && !foundLocal {
		return config, os.ErrNotExist
	}
	return config, nil
}

// FindUp walks from the working directory up to the filesystem root
// and Reads the first directory that carries the file. telemetry.json5
// is resolved this way so package tests anywhere in the tree pick up
// the repo-level exporter config.
func FindUp[T any](name string) (T, error) {
	var config T

	dir, err := os.Getwd()
	if err != nil {
		return config, err
	}
	for {
		config, err = Read[T](filepath.Join(dir, name))
		if !errors.Is(err, os.ErrNotExist) {
			return config, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return config, os.ErrNotExist
		}
		dir = parent
	}
}
