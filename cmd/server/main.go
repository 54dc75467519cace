package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	httpapi "memory-match/internal/api/http"
	"memory-match/internal/api/ws"
	"memory-match/internal/config"
	"memory-match/internal/room"
	"memory-match/internal/store"
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	cfg := config.Default()

	v := viper.New()
	v.SetEnvPrefix("MEMOMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "memomatch-server",
		Short:   "Authoritative room server for a realtime card-matching game.",
		Args:    cobra.ExactArgs(0),
		Version: httpapi.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Port < 1 || cfg.Port > 65535 {
				return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", cfg.Port)
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: MEMOMATCH_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: MEMOMATCH_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "external base URL used in join links (env: MEMOMATCH_PUBLIC_URL)")
	fs.IntVar(&cfg.CodeLength, "code-length", cfg.CodeLength, "room code length (env: MEMOMATCH_CODE_LENGTH)")
	fs.DurationVar(&cfg.RoomMaxAge, "room-max-age", cfg.RoomMaxAge, "age after which a room is swept (env: MEMOMATCH_ROOM_MAX_AGE)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often stale rooms are swept (env: MEMOMATCH_SWEEP_INTERVAL)")
	fs.DurationVar(&cfg.ResolveDelay, "resolve-delay", cfg.ResolveDelay, "reveal window before a pair is resolved (env: MEMOMATCH_RESOLVE_DELAY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: MEMOMATCH_VERBOSE)")

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceUsage = true

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	mem := store.NewMemoryStore()
	rm := room.NewManager(mem, cfg)
	hub := ws.NewHub(rm)
	rm.SetBroadcaster(hub)
	rm.StartSweeper(ctx)

	r := httpapi.NewRouter(rm, hub, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
