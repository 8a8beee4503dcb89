package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/herraise/hubclient/pkg/localstore"
	"github.com/herraise/hubclient/pkg/redis"
)

const appName = "hubclient"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStorage builds the device-local storage selected by cfg.StoreDriver.
func openStorage(ctx context.Context, cfg Config) (localstore.Storage, io.Closer, error) {
	switch cfg.StoreDriver {
	case driverFile, "":
		dir := cfg.StorePath
		if dir == "" {
			var err error
			if dir, err = localstore.DefaultDir(appName); err != nil {
				return nil, nil, err
			}
		}
		fs, err := localstore.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, nopCloser{}, nil

	case driverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		rs := localstore.NewRedisStore(client, cfg.StorePrefix)
		return rs, rs, nil

	case driverMemory:
		return localstore.NewMemoryStore(), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openLog returns where logs go. The terminal belongs to the UI, so logs are
// written to a file next to the stored state unless HUB_LOG_FILE says
// otherwise; "-" means stderr.
func openLog(cfg Config) (io.Writer, io.Closer, error) {
	path := cfg.LogFile
	if path == "-" {
		return os.Stderr, nopCloser{}, nil
	}
	if path == "" {
		dir := cfg.StorePath
		if dir == "" {
			var err error
			if dir, err = localstore.DefaultDir(appName); err != nil {
				return nil, nil, err
			}
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, appName+".log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}
