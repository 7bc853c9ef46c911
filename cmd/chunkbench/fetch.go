package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"

	"github.com/go-theft-craft/chunklayer/internal/server/config"
)

// isRemote reports whether src needs go-getter to be fetched.
func isRemote(src string) bool {
	return strings.Contains(src, "://") || strings.Contains(src, "::")
}

// loadConfig reads the config at src, which is a local path or any source
// go-getter understands (https://, s3::, git::, ...).
func loadConfig(ctx context.Context, src string) (*config.Config, error) {
	if !isRemote(src) {
		return config.Load(src)
	}

	dir, err := os.MkdirTemp("", "chunkbench-config-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, "config.yaml")
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return nil, fmt.Errorf("fetch config %s: %w", src, err)
	}
	return config.Load(dst)
}
