package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"ruinfall.game/internal/ai"
)

// AIClient plays a side with an ai.Controller. It sends one message, then
// waits for the server's answer before deciding the next.
type AIClient struct {
	*Client

	ctrl    *ai.Controller
	log     *log.Logger
	waiting bool
	lastID  uint8
	sentCmd bool
}

func NewAIClient(ctx context.Context, conn ClientConn, d *ai.Doctrine, rng *rand.Rand, logger *log.Logger) (*AIClient, error) {
	c, err := NewClient(ctx, conn)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &AIClient{
		Client: c,
		ctrl:   ai.NewController(c.Side, d, rng, logger),
		log:    logger,
	}, nil
}

// Run plays until the game is over. It returns nil on game over.
func (a *AIClient) Run(ctx context.Context) error {
	defer a.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, recvErr := a.Recv()
		if got {
			a.waiting = false
		}
		over, invalid := a.ProcessStateUpdates()
		if over {
			stats, _ := a.Over()
			a.log.Printf("%s: game over, won=%v lost=%d killed=%d", a.Side, stats.Won, stats.UnitsLost, stats.UnitsKilled)
			return nil
		}
		if recvErr != nil {
			return fmt.Errorf("%s ai: %w", a.Side, recvErr)
		}
		if invalid && a.sentCmd {
			a.ctrl.Finish(a.lastID)
		}
		if a.waiting || !a.OurTurn() {
			time.Sleep(PollInterval)
			continue
		}
		if err := a.act(); err != nil {
			return fmt.Errorf("%s ai: %w", a.Side, err)
		}
		a.waiting = true
	}
}

func (a *AIClient) act() error {
	id, cmd, ok := a.ctrl.Next(a.Map)
	if !ok {
		a.sentCmd = false
		return a.EndTurn()
	}
	a.lastID, a.sentCmd = id, true
	return a.Command(id, cmd)
}
