package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/turns"
)

// NewTurnLoggingMiddleware logs every inference call of an agent run: the
// size of the turn going in, and the blocks and tool calls the model added.
func NewTurnLoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
			lg := logger
			// fall back to global if uninitialized
			if lg.GetLevel() == zerolog.NoLevel {
				lg = log.Logger
			}
			agent, _ := t.Metadata[turns.MetaKeyAgent].(string)
			runID, _ := t.Metadata[turns.MetaKeyRunID].(string)
			lg = lg.With().
				Str("agent", agent).
				Str("run_id", runID).
				Int("block_count", len(t.Blocks)).
				Logger()

			lg.Debug().Msg("turn: starting inference")
			baseline := SnapshotBlockIDs(t)
			start := time.Now()

			result, err := next(ctx, t)
			if err != nil {
				lg.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("turn: inference failed")
				return result, err
			}

			var numText, numToolCall int
			var tools []string
			for _, b := range NewBlocksNotIn(result, baseline) {
				switch b.Kind {
				case turns.BlockKindLLMText:
					numText++
				case turns.BlockKindToolCall:
					numToolCall++
					if name, ok := b.Payload[turns.PayloadKeyName].(string); ok {
						tools = append(tools, name)
					}
				}
			}

			lg.Debug().
				Dur("elapsed", time.Since(start)).
				Int("text_blocks", numText).
				Int("tool_call_blocks", numToolCall).
				Strs("tools", tools).
				Msg("turn: inference completed")
			return result, nil
		}
	}
}
