package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/StoreStation/vibecraft/pkg/auth"
	"github.com/StoreStation/vibecraft/pkg/config"
	"github.com/StoreStation/vibecraft/pkg/game"
	"github.com/StoreStation/vibecraft/pkg/network"
	"github.com/StoreStation/vibecraft/pkg/region"
	"github.com/StoreStation/vibecraft/pkg/regionio"
	"github.com/StoreStation/vibecraft/pkg/tick"
	"github.com/StoreStation/vibecraft/pkg/tracker"
	"github.com/StoreStation/vibecraft/pkg/world"
)

func main() {
	fs := flag.NewFlagSet("vibecraft", flag.ExitOnError)
	args := os.Args[1:]
	configPath, args := extractConfigFlag(args)

	cfg, err := config.Load(fs, configPath, args)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := region.LoadLevelData(cfg.WorldDir)
	if err != nil {
		log.Fatalf("load level data: %v", err)
	}

	key, err := network.NewServerKey()
	if err != nil {
		log.Fatalf("generate server key: %v", err)
	}

	pool := regionio.New(cfg.WorldDir, region.CompressionZLib)
	pool.AddDimension(world.DimensionOverworld)

	st := game.New(
		tracker.New(),
		pool,
		nil, // Listener is wired in below, once it exists
		cfg.WorldDir,
		world.DimensionOverworld,
		game.Config{ViewDistance: cfg.ViewDistance, MaxPlayers: cfg.MaxPlayers},
		level,
	)

	listener := network.NewListener(key, auth.NewHTTPSessionServer(), func() network.StatusInfo {
		return network.StatusInfo{MOTD: cfg.MOTD, MaxPlayers: cfg.MaxPlayers, OnlinePlayers: len(st.Clients)}
	})
	st.Listener = listener

	ln, err := net.Listen("tcp", cfg.BindAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", cfg.BindAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go listener.Serve(ctx, ln)

	loop := tick.New(st, cfg.TPS,
		game.AcceptClients,
		game.ProcessInbound,
		game.ApplyTrackerEvents,
		game.BroadcastMovement,
		game.KeepaliveSweep,
		game.DisconnectSweep,
	)
	go loop.Run(ctx)

	log.Printf("vibecraft server listening on %s (protocol %d)", cfg.BindAddr, network.ProtocolVersion)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down...")
	cancel()
	st.Shutdown()
	if err := pool.Shutdown(); err != nil {
		log.Printf("region pool shutdown: %v", err)
	}
	log.Println("server stopped.")
}

// extractConfigFlag pulls "-config path" or "--config path" out of args
// before the rest get handed to config.Load's own flag.FlagSet, which
// doesn't know about -config itself.
func extractConfigFlag(args []string) (path string, rest []string) {
	path = "server.yaml"
	rest = make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			path = args[i+1]
			i++
			continue
		}
		rest = append(rest, a)
	}
	return path, rest
}
