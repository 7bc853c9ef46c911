package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/go-theft-craft/chunklayer/internal/server"
	"github.com/go-theft-craft/chunklayer/internal/server/config"
)

func main() {
	cfg := config.DefaultConfig()

	app := &cli.App{
		Name:  "chunkbench",
		Usage: "simulates players viewing a chunk layer and measures chunk packet traffic",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file path or go-getter URL"},
			&cli.IntFlag{Name: "height", Value: cfg.Height, Usage: "chunk height in blocks", Destination: &cfg.Height},
			&cli.IntFlag{Name: "min-y", Value: cfg.MinY, Usage: "lowest block Y", Destination: &cfg.MinY},
			&cli.IntFlag{Name: "biomes", Value: cfg.BiomeRegistryLen, Usage: "biome registry size", Destination: &cfg.BiomeRegistryLen},
			&cli.IntFlag{Name: "compression-threshold", Value: cfg.CompressionThreshold, Usage: "packet compression threshold, -1 disables", Destination: &cfg.CompressionThreshold},
			&cli.IntFlag{Name: "view-distance", Value: cfg.ViewDistance, Usage: "view distance in chunks", Destination: &cfg.ViewDistance},
			&cli.Int64Flag{Name: "seed", Value: cfg.Seed, Usage: "world seed", Destination: &cfg.Seed},
			&cli.StringFlag{Name: "generator", Value: cfg.GeneratorType, Usage: "world generator (flat, void)", Destination: &cfg.GeneratorType},
			&cli.IntFlag{Name: "players", Value: cfg.Players, Usage: "simulated players", Destination: &cfg.Players},
			&cli.IntFlag{Name: "ticks", Value: cfg.Ticks, Usage: "ticks to simulate", Destination: &cfg.Ticks},
			&cli.IntFlag{Name: "mutations", Value: cfg.MutationsPerTick, Usage: "block changes per player per tick", Destination: &cfg.MutationsPerTick},
			&cli.BoolFlag{Name: "debug", Usage: "log at debug level"},
		},
		Action: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("debug") {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if src := c.String("config"); src != "" {
				fromFile, err := loadConfig(ctx, src)
				if err != nil {
					return err
				}
				explicit := make(map[string]bool)
				for _, name := range c.FlagNames() {
					if c.IsSet(name) {
						explicit[name] = true
					}
				}
				config.Merge(cfg, fromFile, explicit)
				log.Info("config loaded", "source", src)
			}

			srv, err := server.New(cfg, log)
			if err != nil {
				return err
			}
			_, err = srv.Run(ctx)
			return err
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		slog.Error("chunkbench failed", "error", err)
		os.Exit(1)
	}
}
