package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ctchen222/DrawSync"

// Metrics holds the engine's instruments. A nil *Metrics is valid and
// records nothing, which keeps tests free of provider setup.
type Metrics struct {
	connections    metric.Int64UpDownCounter
	rooms          metric.Int64UpDownCounter
	roundsStarted  metric.Int64Counter
	correctGuesses metric.Int64Counter
	droppedSends   metric.Int64Counter
	gamesCompleted metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.connections, err = meter.Int64UpDownCounter("drawsync.connections.active",
		metric.WithDescription("Open client connections")); err != nil {
		return nil, fmt.Errorf("failed to create connections instrument: %w", err)
	}
	if m.rooms, err = meter.Int64UpDownCounter("drawsync.rooms.active",
		metric.WithDescription("Rooms currently alive")); err != nil {
		return nil, fmt.Errorf("failed to create rooms instrument: %w", err)
	}
	if m.roundsStarted, err = meter.Int64Counter("drawsync.rounds.started"); err != nil {
		return nil, fmt.Errorf("failed to create rounds instrument: %w", err)
	}
	if m.correctGuesses, err = meter.Int64Counter("drawsync.guesses.correct"); err != nil {
		return nil, fmt.Errorf("failed to create guesses instrument: %w", err)
	}
	if m.droppedSends, err = meter.Int64Counter("drawsync.sends.dropped",
		metric.WithDescription("Frames that could not be queued for a slow or closed client")); err != nil {
		return nil, fmt.Errorf("failed to create dropped sends instrument: %w", err)
	}
	if m.gamesCompleted, err = meter.Int64Counter("drawsync.games.completed"); err != nil {
		return nil, fmt.Errorf("failed to create games instrument: %w", err)
	}
	return m, nil
}

func (m *Metrics) ConnectionOpened(ctx context.Context) {
	if m != nil {
		m.connections.Add(ctx, 1)
	}
}

func (m *Metrics) ConnectionClosed(ctx context.Context) {
	if m != nil {
		m.connections.Add(ctx, -1)
	}
}

func (m *Metrics) RoomOpened(ctx context.Context) {
	if m != nil {
		m.rooms.Add(ctx, 1)
	}
}

func (m *Metrics) RoomClosed(ctx context.Context) {
	if m != nil {
		m.rooms.Add(ctx, -1)
	}
}

func (m *Metrics) RoundStarted(ctx context.Context, roomID string) {
	if m != nil {
		m.roundsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("room.id", roomID)))
	}
}

func (m *Metrics) CorrectGuess(ctx context.Context, roomID string) {
	if m != nil {
		m.correctGuesses.Add(ctx, 1, metric.WithAttributes(attribute.String("room.id", roomID)))
	}
}

func (m *Metrics) SendDropped(ctx context.Context) {
	if m != nil {
		m.droppedSends.Add(ctx, 1)
	}
}

func (m *Metrics) GameCompleted(ctx context.Context, roomID string) {
	if m != nil {
		m.gamesCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("room.id", roomID)))
	}
}
