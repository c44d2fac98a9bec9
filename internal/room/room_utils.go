package room

import (
	"context"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/player"
	"ctchen222/DrawSync/pkg/proto"
)

func (r *Room) findPlayer(id int64) (int, *player.Player) {
	for i, p := range r.players {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) isDrawer(p *player.Player) bool {
	return r.phase == game.PhaseDrawing && r.round.DrawerID == p.ID
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected() {
			n++
		}
	}
	return n
}

func (r *Room) roster() []proto.PlayerView {
	views := make([]proto.PlayerView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, proto.PlayerView{ID: p.ID, Username: p.Username, Score: p.Score, Ready: p.Ready})
	}
	return views
}

func (r *Room) broadcast(ctx context.Context, msg any, except string) {
	r.opts.Router.Broadcast(ctx, r.ID, msg, except)
}

func (r *Room) sendPrivate(ctx context.Context, connID string, msg any) {
	if connID != "" {
		r.opts.Router.SendPrivate(ctx, connID, msg)
	}
}

func (r *Room) sendError(ctx context.Context, connID string, err error) {
	r.sendPrivate(ctx, connID, proto.NewErrorMessage(err))
}
