package world

import (
	"context"
	"fmt"
	"time"

	"wumpusworld.ai/internal/sim/agent"
)

// Run steps the episode at the configured tick rate until it ends, Stop is
// called or ctx is done. Cancellation takes effect between ticks.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := map[string]agent.Action{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case env := <-w.inbox:
			pending[env.AgentID] = env.Act
		case <-ticker.C:
			w.StepOnce(pending)
			clear(pending)
			if w.over {
				return nil
			}
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Submit queues an explicit action named as in ParseAction for the next tick
// of a running world. The latest submission per agent wins.
func (w *World) Submit(agentID, name string) error {
	if _, ok := w.byID[agentID]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownAgent, agentID)
	}
	act, err := agent.ParseAction(name)
	if err != nil {
		return err
	}
	select {
	case w.inbox <- ActionEnvelope{AgentID: agentID, Act: act}:
		return nil
	default:
		return fmt.Errorf("inbox full")
	}
}
