package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"ruinfall.game/internal/ai"
	"ruinfall.game/internal/persistence/indexdb"
	"ruinfall.game/internal/persistence/recorder"
	"ruinfall.game/internal/session"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/tuning"
	"ruinfall.game/internal/sim/units"
)

type options struct {
	skirmish  battle.Skirmish
	settings  tuning.Settings
	doctrines [2]*ai.Doctrine
	maxTurns  uint16
	record    bool
}

type result struct {
	gameID  string
	winner  string
	turns   uint16
	unitsA  int
	unitsB  int
	digest  string
	stalled bool
}

func main() {
	var (
		settingsPath = flag.String("settings", "./configs/settings.yaml", "settings path")
		skirmishPath = flag.String("skirmish", "./configs/skirmish.yaml", "skirmish path")
		doctrineA    = flag.String("doctrine_a", "./configs/doctrine.yaml", "doctrine for PlayerA (built-in when missing)")
		doctrineB    = flag.String("doctrine_b", "./configs/doctrine.yaml", "doctrine for PlayerB (built-in when missing)")
		seed         = flag.Int64("seed", 0, "seed for the first game; later games use seed+i (0: time based)")
		games        = flag.Int("games", 1, "number of games to play")
		maxTurns     = flag.Int("max_turns", 200, "stop a game that runs longer than this")
		record       = flag.Bool("record", false, "write the match log, index rows and archive")
		disableDB    = flag.Bool("disable_db", false, "with -record, skip the index database")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[skirmish] ", log.LstdFlags|log.Lmicroseconds)

	settings, err := tuning.LoadSettings(*settingsPath)
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}
	sk, err := tuning.LoadSkirmish(*skirmishPath)
	if err != nil {
		logger.Fatalf("load skirmish: %v", err)
	}
	opts := options{
		skirmish: sk.Battle(),
		settings: settings,
		maxTurns: uint16(min(max(*maxTurns, 1), 1<<16-1)),
		record:   *record,
	}
	for i, path := range []string{*doctrineA, *doctrineB} {
		d, err := loadDoctrine(path)
		if err != nil {
			logger.Fatalf("doctrine %s: %v", path, err)
		}
		opts.doctrines[i] = d
	}

	var idx *indexdb.Index
	if *record && !*disableDB && settings.Index.Backend != "none" {
		idx, err = indexdb.Open(settings.Index.Backend, settings.Index.Path, settings.Index.DSN)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx, cancel := signalContext()
	defer cancel()

	tally := map[string]int{}
	for i := 0; i < *games; i++ {
		s := *seed + int64(i)
		res, err := play(ctx, opts, idx, s, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Printf("interrupted")
				break
			}
			logger.Fatalf("game %d: %v", i+1, err)
		}
		winner := res.winner
		switch {
		case res.stalled:
			winner = "stalled"
		case winner == "":
			winner = "nobody"
		}
		tally[winner]++
		fmt.Printf("game %d seed=%d id=%s winner=%s turns=%d units=%d/%d digest=%.12s\n",
			i+1, s, res.gameID, winner, res.turns, res.unitsA, res.unitsB, res.digest)
	}
	if *games > 1 {
		fmt.Printf("PlayerA %d, PlayerB %d, stalled %d\n", tally["PlayerA"], tally["PlayerB"], tally["stalled"])
	}
}

// play runs one game between two AI clients in this process.
func play(ctx context.Context, opts options, idx *indexdb.Index, seed int64, logger *log.Logger) (result, error) {
	rng := rand.New(rand.NewSource(seed))
	m, err := battle.NewFromSettings(opts.skirmish, rng)
	if err != nil {
		return result{}, err
	}
	m.GameID = uuid.NewString()

	var rec *recorder.Recorder
	if opts.record {
		rec, err = recorder.New(m, recorder.Config{
			DataDir: opts.settings.DataDir,
			SaveDir: opts.settings.SaveDir,
			Index:   idx,
			Logger:  logger,
		})
		if err != nil {
			return result{}, err
		}
		defer rec.Close()
	}

	gameCtx, stop := context.WithCancel(ctx)
	defer stop()
	stalled := false
	srv := session.NewServer(m, nil, session.ServerConfig{
		SaveDir: opts.settings.SaveDir,
		RNG:     rng,
		Logger:  logger,
		OnHandled: func(h session.Handled) {
			if rec != nil {
				rec.OnHandled(h)
			}
			if h.Map.Turn > opts.maxTurns && !h.Map.Over() {
				stalled = true
				stop()
			}
		},
	})

	var bots [2]*session.AIClient
	for i, side := range units.Sides {
		srvConn, conn := session.Pair()
		if _, err := srv.Attach(srvConn); err != nil {
			return result{}, err
		}
		bot, err := session.NewAIClient(gameCtx, conn, opts.doctrines[i], rand.New(rand.NewSource(seed+int64(side)+1)), logger)
		if err != nil {
			return result{}, err
		}
		bots[i] = bot
	}

	var wg sync.WaitGroup
	for _, bot := range bots {
		bot := bot
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(gameCtx); err != nil && gameCtx.Err() == nil {
				logger.Printf("%v", err)
			}
		}()
	}
	runErr := srv.Run(gameCtx)
	stop()
	wg.Wait()

	if runErr != nil && !stalled {
		return result{}, runErr
	}

	res := result{
		gameID:  m.GameID,
		turns:   m.Turn,
		unitsA:  m.Units.Count(units.PlayerA),
		unitsB:  m.Units.Count(units.PlayerB),
		digest:  m.Digest(),
		stalled: stalled,
	}
	switch {
	case res.unitsB == 0 && res.unitsA > 0:
		res.winner = units.PlayerA.String()
	case res.unitsA == 0 && res.unitsB > 0:
		res.winner = units.PlayerB.String()
	}
	if rec != nil && !stalled {
		meta, err := rec.Finish(m)
		if err != nil {
			return res, err
		}
		logger.Printf("archived %s (%s)", meta.Snapshot, humanize.Bytes(uint64(meta.Bytes)))
	}
	return res, nil
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
