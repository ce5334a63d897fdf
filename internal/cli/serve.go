package cli

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spacetime/internal/server"
	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/config"
	"github.com/matzehuels/spacetime/pkg/errors"
)

// serveCommand creates the browser front-end command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, backend, redisAddr string
	var advertise bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive diagrams to a browser",
		Long: `Start an HTTP server with an interactive diagram page.

Every browser tab gets its own diagram over a websocket, discarded when the
tab closes. The REST API under /api/sessions creates longer-lived sessions
and exports them in any render format. Prometheus metrics are served on
/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				c.cfg.Addr = addr
			}
			if flags.Changed("cache") {
				c.cfg.Cache = backend
			}
			if flags.Changed("redis-addr") {
				c.cfg.RedisAddr = redisAddr
			}
			if flags.Changed("advertise") {
				c.cfg.Advertise = advertise
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ch, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			srv := server.New(server.Options{
				Grid:      c.cfg.Grid(),
				Palette:   c.cfg.Palette,
				Pitch:     c.cfg.Pitch,
				HoldDelay: c.cfg.HoldDelay,
				Cache:     ch,
				Keyer:     cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":"),
				CacheTTL:  c.cfg.CacheTTL,
				Logger:    logger,
			})

			ln, err := net.Listen("tcp", c.cfg.Addr)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "listen on %s", c.cfg.Addr)
			}

			if c.cfg.Advertise {
				port := ln.Addr().(*net.TCPAddr).Port
				mdnsServer, err := server.Advertise(port)
				if err != nil {
					printWarning("mDNS advertisement failed: %v", err)
				} else {
					defer mdnsServer.Shutdown()
					logger.Info("Advertising", "service", server.ServiceType, "port", port)
				}
			}

			printSuccess("Serving diagrams")
			printKeyValue("URL", "http://"+ln.Addr().String())
			printKeyValue("Grid", strconv.Itoa(c.cfg.Cells)+"×"+strconv.Itoa(c.cfg.Rows))
			printKeyValue("Cache", c.cfg.Cache)
			printNewline()
			printNextStep("Export a session", "curl -X POST http://"+ln.Addr().String()+"/api/sessions")

			return srv.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8737)")
	cmd.Flags().StringVar(&backend, "cache", "", "artifact cache: "+config.CacheNone+", "+config.CacheFile+", "+config.CacheRedis)
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "redis address for --cache redis")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "announce the server via mDNS")

	return cmd
}
