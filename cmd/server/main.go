package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ruinfall.game/internal/persistence/indexdb"
	"ruinfall.game/internal/persistence/recorder"
	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/session"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/tuning"
	"ruinfall.game/internal/transport/tcp"
	"ruinfall.game/internal/transport/ws"
)

func main() {
	var (
		settingsPath = flag.String("settings", "./configs/settings.yaml", "settings path")
		skirmishPath = flag.String("skirmish", "./configs/skirmish.yaml", "skirmish path (used only when starting a fresh game)")
		loadPath     = flag.String("load", "", "save file to resume (optional)")
		seed         = flag.Int64("seed", 0, "map and combat seed (0: time based)")
		addr         = flag.String("addr", "", "tcp listen address (default: settings listen_addr)")
		httpAddr     = flag.String("http", "", "http listen address for /v1/ws, /healthz and /metrics (default: settings ws_addr)")
		indexBackend = flag.String("index_backend", "", "index backend: sqlite|postgres|none (default: settings)")
		indexDSN     = flag.String("index_dsn", "", "postgres dsn (or set RUINFALL_INDEX_DSN)")
		disableDB    = flag.Bool("disable_db", false, "disable the index database")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	settings, err := tuning.LoadSettings(*settingsPath)
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}
	if *addr != "" {
		settings.ListenAddr = *addr
	}
	if *httpAddr != "" {
		settings.WSAddr = *httpAddr
	}
	if *indexBackend != "" {
		settings.Index.Backend = *indexBackend
	}
	if dsn := firstNonEmpty(*indexDSN, os.Getenv("RUINFALL_INDEX_DSN")); dsn != "" {
		settings.Index.DSN = dsn
	}
	if *disableDB {
		settings.Index.Backend = "none"
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	m, err := loadOrCreate(*loadPath, *skirmishPath, rng)
	if err != nil {
		logger.Fatalf("map: %v", err)
	}
	if m.GameID == "" {
		m.GameID = uuid.NewString()
	}
	logger.Printf("game %s: %dx%d turn %d, %s to move", m.GameID, m.Width(), m.Height(), m.Turn, m.Side)

	idx, err := openIndex(settings.Index)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		logger.Printf("index backend: %s", settings.Index.Backend)
	} else {
		logger.Printf("index disabled")
	}

	rec, err := recorder.New(m, recorder.Config{
		DataDir: settings.DataDir,
		SaveDir: settings.SaveDir,
		Index:   idx,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatalf("recorder: %v", err)
	}
	defer rec.Close()

	ctx, cancel := signalContext()
	defer cancel()

	st := &status{}
	st.update(m, false)

	incoming := make(chan session.ServerConn)
	accept := func(c session.ServerConn) {
		select {
		case incoming <- c:
		case <-ctx.Done():
			c.Close()
		}
	}

	ln, err := net.Listen("tcp", settings.ListenAddr)
	if err != nil {
		logger.Fatalf("listen %s: %v", settings.ListenAddr, err)
	}
	logger.Printf("tcp listening on %s", ln.Addr())
	go func() {
		err := tcp.Serve(ctx, ln, func(c *tcp.Conn[protocol.ServerMessage, protocol.ClientMessage]) { accept(c) })
		if err != nil && ctx.Err() == nil {
			logger.Printf("tcp accept: %v", err)
		}
	}()

	if settings.WSAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(200)
			_, _ = rw.Write([]byte("ok"))
		})
		mux.HandleFunc("/metrics", metricsHandler(st, idx))
		if envBool("RUINFALL_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
			mux.HandleFunc("/admin/v1/state", stateHandler(st))
		} else {
			logger.Printf("admin endpoints disabled (RUINFALL_ENABLE_ADMIN_HTTP=false)")
		}
		wsSrv := ws.NewServer(logger, func(c *ws.Conn[protocol.ServerMessage, protocol.ClientMessage]) { accept(c) })
		mux.HandleFunc("/v1/ws", wsSrv.Handler())

		hs := &http.Server{
			Addr:              settings.WSAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = hs.Shutdown(ctx2)
		}()
		go func() {
			logger.Printf("http listening on %s", settings.WSAddr)
			if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("http: %v", err)
			}
		}()
	}

	srv := session.NewServer(m, incoming, session.ServerConfig{
		SaveDir: settings.SaveDir,
		RNG:     rng,
		Logger:  logger,
		OnHandled: func(h session.Handled) {
			rec.OnHandled(h)
			st.update(h.Map, true)
		},
	})
	runErr := srv.Run(ctx)

	switch {
	case runErr == nil:
		if _, err := rec.Finish(m); err != nil {
			logger.Printf("finish: %v", err)
		}
	case errors.Is(runErr, context.Canceled):
		// keep the unfinished game so it can be resumed with -load
		path, err := battle.SaveName(settings.SaveDir, m.GameID+"-interrupted")
		if err == nil {
			err = m.WriteFile(path)
		}
		if err != nil {
			logger.Printf("save on shutdown: %v", err)
		} else {
			logger.Printf("interrupted; resume with -load %s", path)
		}
	default:
		logger.Printf("server stopped: %v", runErr)
	}
	cancel()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		rec.Close()
		if idx != nil {
			idx.Close()
		}
		os.Exit(1)
	}
}

func loadOrCreate(loadPath, skirmishPath string, rng *rand.Rand) (*battle.Map, error) {
	if loadPath != "" {
		return battle.Load(loadPath)
	}
	sk, err := tuning.LoadSkirmish(skirmishPath)
	if err != nil {
		return nil, err
	}
	return battle.NewFromSettings(sk.Battle(), rng)
}

func openIndex(s tuning.IndexSettings) (*indexdb.Index, error) {
	if s.Backend == "none" {
		return nil, nil
	}
	return indexdb.Open(s.Backend, s.Path, s.DSN)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
