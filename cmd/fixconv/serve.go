package main

import (
	"context"
	"flag"

	"github.com/danmuck/fixconv/internal/server"
	"github.com/danmuck/fixconv/internal/store"
)

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to fixconv.toml")
	addr := fs.String("addr", "", "listen address (defaults to config server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg, conv, reg)
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database.URL, store.DefaultBackoff())
		if err != nil {
			return err
		}
		defer pool.Close()
		st := store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		srv.WithStore(st)
	}
	return srv.Serve(ctx)
}
