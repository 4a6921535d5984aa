package config

import (
	"context"
	"os"
	"time"
)

// WatchCatalog loads catalog.yaml, calls onUpdate, then polls the file's
// modification time and calls onUpdate after every valid change. Invalid
// edits are reported through onError and the previous catalog stays live.
func WatchCatalog(ctx context.Context, path string, interval time.Duration, onUpdate func(*CatalogConfig), onError func(error)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadCatalogConfig(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				cfg, err := LoadCatalogConfig(path)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
