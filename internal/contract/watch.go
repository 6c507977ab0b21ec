// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/algods/internal/logging"
)

// DefaultDebounce is how long the sources must be quiet before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watch builds contract name, then rebuilds whenever a .py file in its
// directory changes, until ctx is done. onBuild sees every attempt.
func (b *Builder) Watch(ctx context.Context, name string, debounce time.Duration, onBuild func(*Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	res, err := b.Build(ctx, name)
	onBuild(res, err)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(b.Dir(name)); err != nil {
		return fmt.Errorf("watch %s: %w", b.Dir(name), err)
	}

	log := logging.FromContext(ctx)
	ticker := time.NewTicker(debounce / 3)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".py" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				log.Debug("source changed", "file", event.Name, "op", event.Op.String())
				pending = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= debounce {
				pending = time.Time{}
				res, err := b.Build(ctx, name)
				onBuild(res, err)
			}
		}
	}
}
