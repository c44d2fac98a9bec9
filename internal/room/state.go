package room

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/player"
	"ctchen222/DrawSync/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startGame moves the room from the lobby into round one.
func (r *Room) startGame(ctx context.Context, requester *player.Player) error {
	ctx, span := tracer.Start(ctx, "room.startGame", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int64("player.id", requester.ID),
	))
	defer span.End()

	if r.phase != game.PhaseLobby {
		return game.ErrGameInProgress
	}
	if r.connectedCount() < r.settings.MinPlayers {
		return game.ErrNotEnoughPlayers.WithMessage(fmt.Sprintf("Need at least %d players to start", r.settings.MinPlayers))
	}

	for _, p := range r.players {
		p.Score = 0
	}
	r.round.Number = 1
	r.drawerIdx = 0

	slog.InfoContext(ctx, "Game started", "room.id", r.ID, "player.id", requester.ID, "players.count", len(r.players))
	r.broadcast(ctx, proto.NewGameStarted(r.ID), "")
	r.enterDrawing(ctx)
	return nil
}

// enterDrawing picks the drawer and word for the current round number and
// starts the round timer.
func (r *Room) enterDrawing(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "room.enterDrawing", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int("round", r.round.Number),
	))
	defer span.End()

	if r.connectedCount() < r.settings.MinPlayers {
		slog.InfoContext(ctx, "Not enough players for next round, ending game", "room.id", r.ID, "players.connected", r.connectedCount())
		span.SetStatus(codes.Error, "Not enough players")
		r.endGame(ctx)
		return
	}

	n := len(r.players)
	r.drawerIdx = ((r.drawerIdx % n) + n) % n
	for i := 0; i < n && !r.players[r.drawerIdx].Connected(); i++ {
		r.drawerIdx = (r.drawerIdx + 1) % n
	}
	drawer := r.players[r.drawerIdx]

	word := r.opts.Words.RandomWord(r.settings.Difficulty)
	now := r.now()
	r.round.Reset(r.round.Number, drawer.ID, word, now, r.settings.RoundDuration)
	r.chat = nil
	r.phase = game.PhaseDrawing
	r.opts.Metrics.RoundStarted(ctx, r.ID)

	slog.InfoContext(ctx, "Round started", "room.id", r.ID, "round", r.round.Number, "drawer.id", drawer.ID)
	r.broadcast(ctx, proto.NewRoundStarted(r.round.Number, drawer.Username, r.round.TimeRemaining(now)), "")
	for _, p := range r.players {
		if !p.Connected() {
			continue
		}
		r.sendPrivate(ctx, p.ConnID, proto.NewWordAssigned(word, drawer.Username, p.ID == drawer.ID))
	}
	r.schedule(r.settings.RoundDuration, timerRoundTimeout)
}

// endRound reveals the word and either schedules the next round or ends
// the game. It is a no-op outside of Drawing.
func (r *Room) endRound(ctx context.Context) {
	if r.phase != game.PhaseDrawing {
		return
	}
	ctx, span := tracer.Start(ctx, "room.endRound", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int("round", r.round.Number),
	))
	defer span.End()

	r.stopTimer()
	r.broadcast(ctx, proto.NewRoundEnded(r.round.Number, r.round.Word), "")

	r.round.Clear()
	r.chat = nil
	r.phase = game.PhaseRoundEnd
	r.round.Number++
	r.drawerIdx++

	if r.round.Number > r.settings.MaxRounds {
		r.endGame(ctx)
		return
	}
	r.schedule(r.settings.GraceDelay, timerNextRound)
}

// endGame publishes final scores and returns the room to the lobby.
func (r *Room) endGame(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "room.endGame", trace.WithAttributes(
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	r.stopTimer()

	scores := make(map[int64]int, len(r.players))
	for _, p := range r.players {
		scores[p.ID] = p.Score
	}
	r.broadcast(ctx, proto.NewGameEnded(scores), "")
	r.recordResult(ctx)
	r.opts.Metrics.GameCompleted(ctx, r.ID)

	r.phase = game.PhaseLobby
	r.round.Clear()
	r.round.Number = 0
	r.round.Deadline = time.Time{}
	r.drawerIdx = 0
	r.chat = nil
	slog.InfoContext(ctx, "Game ended", "room.id", r.ID)
}

func (r *Room) recordResult(ctx context.Context) {
	if r.opts.Sink == nil || len(r.players) == 0 {
		return
	}

	best := 0
	for _, p := range r.players {
		best = max(best, p.Score)
	}
	result := GameResult{RoomID: r.ID, EndedAt: r.now()}
	for _, p := range r.players {
		result.Scores = append(result.Scores, PlayerScore{
			PlayerID: p.ID,
			Username: p.Username,
			Score:    p.Score,
			Winner:   best > 0 && p.Score == best,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		defer cancel()
		if err := r.opts.Sink.RecordGame(ctx, result); err != nil {
			slog.WarnContext(ctx, "Failed to record game result", "room.id", r.ID, "error", err)
		}
	}()
}

// schedule arms a single-shot timer tagged with the current round
// generation. Any later Reset or Clear of the round makes it stale.
func (r *Room) schedule(d time.Duration, kind timerKind) {
	r.stopTimer()
	ev := &timerEvent{kind: kind, generation: r.round.Generation}
	r.timer = time.AfterFunc(d, func() {
		select {
		case r.inbox <- ev:
		case <-r.done:
		}
	})
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
