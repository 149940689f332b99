package session

import (
	"context"
	"log"
	"sync"

	"github.com/emilianodevborn/Snake-Red/engine"
	"github.com/emilianodevborn/Snake-Red/models"
)

type botMove struct {
	action engine.Action
	err    error
}

// decideBots asks the oracle for every live bot at once. A bot whose
// decision fails or misses the deadline is left out and keeps its heading.
func (s *Session) decideBots(ctx context.Context, gs *models.GameState) map[string]models.Direction {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]models.Direction)
	)

	for i := range gs.Snakes {
		snake := &gs.Snakes[i]
		if !snake.IsBot {
			continue
		}
		features := engine.ComputeFeatures(gs, snake, s.engine.Width(), s.engine.Height())
		id, heading, difficulty := snake.ID, snake.Direction, snake.BotDifficulty

		wg.Add(1)
		go func() {
			defer wg.Done()

			botCtx, cancel := context.WithTimeout(ctx, s.botTimeout)
			defer cancel()

			result := make(chan botMove, 1)
			go func() {
				a, err := s.oracle.Move(botCtx, features, difficulty)
				result <- botMove{action: a, err: err}
			}()

			select {
			case m := <-result:
				if m.err != nil {
					log.Printf("Bot %s decision failed: %v", id, m.err)
					return
				}
				mu.Lock()
				out[id] = engine.MapActionToDirection(heading, m.action)
				mu.Unlock()
			case <-botCtx.Done():
				log.Printf("Bot %s decision timed out", id)
			}
		}()
	}

	wg.Wait()
	return out
}
