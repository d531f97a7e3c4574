package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ruinfall.game/internal/ai"
	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/session"
	"ruinfall.game/internal/sim/tuning"
	"ruinfall.game/internal/transport/tcp"
	"ruinfall.game/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", "127.0.0.1:6666", "server tcp address")
		url          = flag.String("url", "", "server websocket url, e.g. ws://127.0.0.1:6667/v1/ws (overrides -addr)")
		doctrinePath = flag.String("doctrine", "./configs/doctrine.yaml", "doctrine path (built-in doctrine when missing)")
		seed         = flag.Int64("seed", 0, "decision seed (0: time based)")
		timeout      = flag.Duration("dial_timeout", 10*time.Second, "connect timeout")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	d, err := loadDoctrine(*doctrinePath)
	if err != nil {
		logger.Fatalf("doctrine: %v", err)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx, cancel := signalContext()
	defer cancel()

	dialCtx, cancelDial := context.WithTimeout(ctx, *timeout)
	conn, err := dial(dialCtx, *addr, *url)
	cancelDial()
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}

	bot, err := session.NewAIClient(ctx, conn, d, rand.New(rand.NewSource(*seed)), logger)
	if err != nil {
		conn.Close()
		if errors.Is(err, protocol.ErrGameFull) {
			logger.Fatalf("the game is full")
		}
		logger.Fatalf("join: %v", err)
	}
	logger.Printf("playing %s on a %dx%d map", bot.Side, bot.Map.Width(), bot.Map.Height())

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("%v", err)
	}
}

func dial(ctx context.Context, addr, url string) (session.ClientConn, error) {
	if url != "" {
		c, err := ws.Dial[protocol.ClientMessage, protocol.ServerMessage](ctx, url)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := tcp.Dial[protocol.ClientMessage, protocol.ServerMessage](ctx, addr)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func loadDoctrine(path string) (*ai.Doctrine, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ai.MustDefault(), nil
	}
	raw, err := tuning.LoadDoctrine(path)
	if err != nil {
		return nil, err
	}
	return ai.Compile(raw)
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
