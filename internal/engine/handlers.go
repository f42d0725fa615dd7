package engine

import (
	"context"
	"log/slog"

	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/protocol"
	"github.com/darkkD11/CardArena/internal/services/directory"
	"github.com/darkkD11/CardArena/internal/services/reconnect"
	"github.com/darkkD11/CardArena/internal/services/room"
	"github.com/darkkD11/CardArena/internal/validation"
)

var (
	identifyErrs = map[string]error{"PlayerID": model.ErrInvalidPlayerID}
	createErrs   = map[string]error{"PlayerID": model.ErrUnauthorized}
	kickErrs     = map[string]error{"PlayerID": model.ErrInvalidPlayer}
	playErrs     = map[string]error{"Cards": model.ErrInvalidCards, "ClaimedRank": model.ErrInvalidRank}
	checkErrs    = map[string]error{"LoserID": model.ErrInvalidPlayer}
)

func (e *Engine) identify(ctx context.Context, conn directory.Conn, r protocol.Identify) error {
	if err := validation.Check(r, identifyErrs); err != nil {
		return err
	}
	playerID := model.PlayerID(r.PlayerID)
	if r.Token != "" {
		tokenPlayer, _, err := e.sessions.VerifyToken(r.Token)
		if err != nil || tokenPlayer != playerID {
			return model.ErrUnauthorized
		}
	}

	name := validation.Sanitize(r.Name, e.cfg.NameMaxLength)
	if name == "" {
		name = validation.Sanitize(r.PlayerID, e.cfg.NameMaxLength)
	}
	avatar := r.Avatar
	if !validation.Avatar(avatar) {
		avatar = 0
	}

	// A socket that switches identity gives up the old one first.
	if prev, ok := e.dir.Lookup(conn); ok && prev.PlayerID != playerID {
		e.dir.Unbind(conn)
		e.sessions.Remove(prev.PlayerID, prev.ConnectionID)
		e.limiter.Forget(ctx, prev.PlayerID)
		e.depart(ctx, prev.PlayerID)
	}

	sess, err := e.sessions.Create(playerID, name, avatar)
	if err != nil {
		return err
	}
	e.dir.Bind(conn, playerID, sess.ConnectionID, name)

	e.send(conn, protocol.TypeSessionCreated, protocol.SessionCreated{
		PlayerID:     string(playerID),
		ConnectionID: sess.ConnectionID,
		Token:        sess.Token,
		Name:         name,
		Avatar:       avatar,
	})

	e.logger.Info("player identified",
		slog.String("player_id", string(playerID)),
		slog.String("conn", conn.ID()))

	if record, ok := e.seats.Reclaim(playerID); ok {
		e.resume(ctx, conn, record)
	} else if current, err := e.rooms.RoomOf(ctx, playerID); err == nil {
		// Still seated from another socket: resync this one.
		e.send(conn, protocol.TypeJoinedRoom, protocol.RoomPayload{Room: protocol.RoomFromModel(current)})
		if current.Status == model.RoomStatusPlaying {
			e.sendRestore(ctx, conn, current, playerID)
		}
	}

	e.sendLobby(ctx, conn)
	return nil
}

// resume puts a reconnecting player back in the seat held for them
func (e *Engine) resume(ctx context.Context, conn directory.Conn, record *reconnect.Record) {
	playerID := record.Member.ID
	r, err := e.rooms.Seat(ctx, record.RoomID, record.Member)
	if err != nil {
		e.logger.Warn("held seat could not be restored",
			slog.String("player_id", string(playerID)),
			slog.String("room_id", string(record.RoomID)),
			slog.String("error", err.Error()))
		if err := e.games.DropHand(ctx, record.RoomID, playerID); err != nil {
			e.logger.Error("failed to drop hand", slog.String("error", err.Error()))
		}
		return
	}
	if err := e.games.RepairTurn(ctx, r); err != nil {
		e.logger.Error("failed to repair turn", slog.String("error", err.Error()))
	}

	e.send(conn, protocol.TypeJoinedRoom, protocol.RoomPayload{Room: protocol.RoomFromModel(r)})
	e.sendRestore(ctx, conn, r, playerID)
	e.toRoom(r, protocol.TypePlayerReconnected, protocol.PlayerStatus{
		PlayerID: string(playerID),
		Name:     record.Member.Name,
	})
	e.publishRoom(r)
	e.publishLobby(ctx)
}

func (e *Engine) sendRestore(ctx context.Context, conn directory.Conn, r *model.Room, playerID model.PlayerID) {
	restore, err := e.games.Restore(ctx, r.ID, playerID)
	if err != nil {
		e.logger.Error("failed to build restore",
			slog.String("room_id", string(r.ID)),
			slog.String("error", err.Error()))
		return
	}

	owners := make([]string, len(restore.PileOwners))
	for i, id := range restore.PileOwners {
		owners[i] = string(id)
	}
	counts := make(map[string]int, len(restore.CardCounts))
	for id, n := range restore.CardCounts {
		counts[string(id)] = n
	}

	e.send(conn, protocol.TypeGameStateRestore, protocol.GameStateRestore{
		RoomID:      string(r.ID),
		Hand:        protocol.CardsFromModel(restore.Hand),
		PileOwners:  owners,
		PileSize:    len(owners),
		CurrentTurn: string(restore.CurrentTurn),
		ClaimedRank: string(restore.ClaimedRank),
		CardCounts:  counts,
	})
}

// depart handles a player whose connection went away. Playing rooms hold
// the seat for the grace period; waiting rooms treat it as a leave.
func (e *Engine) depart(ctx context.Context, playerID model.PlayerID) {
	r, err := e.rooms.RoomOf(ctx, playerID)
	if err != nil {
		return
	}

	if r.Status != model.RoomStatusPlaying {
		if err := e.leave(ctx, playerID, r); err != nil {
			e.logger.Error("failed to remove departed player", slog.String("error", err.Error()))
		}
		e.publishLobby(ctx)
		return
	}

	member, _ := r.RemoveMember(playerID)
	if err := e.rooms.Save(ctx, r); err != nil {
		e.logger.Error("failed to save room", slog.String("error", err.Error()))
		return
	}
	if err := e.games.RepairTurn(ctx, r); err != nil {
		e.logger.Error("failed to repair turn", slog.String("error", err.Error()))
	}
	e.seats.Hold(r.ID, member, e.seatExpired)

	e.toRoom(r, protocol.TypePlayerDisconnected, protocol.PlayerDisconnected{
		PlayerID:    string(playerID),
		Name:        member.Name,
		GracePeriod: e.seats.GracePeriod().Milliseconds(),
	})
	e.publishRoom(r)
	e.publishLobby(ctx)
}

// seatExpired is the grace timer callback. It runs on the timer's goroutine.
func (e *Engine) seatExpired(playerID model.PlayerID) {
	e.Submit(func() { e.expireSeat(context.Background(), playerID) })
}

func (e *Engine) expireSeat(ctx context.Context, playerID model.PlayerID) {
	record, ok := e.seats.Expire(playerID)
	if !ok {
		return
	}
	r, err := e.rooms.Get(ctx, record.RoomID)
	if err != nil {
		return
	}

	if err := e.games.DropHand(ctx, r.ID, playerID); err != nil {
		e.logger.Error("failed to drop hand", slog.String("error", err.Error()))
	}

	e.logger.Info("held seat expired",
		slog.String("player_id", string(playerID)),
		slog.String("room_id", string(r.ID)))

	if r.HumanCount() == 0 {
		if err := e.rooms.Delete(ctx, r.ID); err != nil {
			e.logger.Error("failed to delete room", slog.String("error", err.Error()))
			return
		}
		e.seats.Drop(r.ID)
		e.publishLobby(ctx)
		return
	}

	e.toRoom(r, protocol.TypePlayerTimeout, protocol.PlayerStatus{
		PlayerID: string(playerID),
		Name:     record.Member.Name,
	})
	e.publishRoom(r)
}

// leave removes playerID from r and tells the remaining members
func (e *Engine) leave(ctx context.Context, playerID model.PlayerID, r *model.Room) error {
	playing := r.Status == model.RoomStatusPlaying
	updated, deleted, err := e.rooms.Leave(ctx, r.ID, playerID)
	if err != nil {
		return err
	}
	if deleted {
		e.seats.Drop(r.ID)
		return nil
	}
	if playing {
		e.dropFromGame(ctx, updated, playerID)
	}
	e.publishRoom(updated)
	return nil
}

func (e *Engine) dropFromGame(ctx context.Context, r *model.Room, playerID model.PlayerID) {
	if err := e.games.DropHand(ctx, r.ID, playerID); err != nil {
		e.logger.Error("failed to drop hand", slog.String("error", err.Error()))
	}
	if err := e.games.RepairTurn(ctx, r); err != nil {
		e.logger.Error("failed to repair turn", slog.String("error", err.Error()))
	}
}

// self builds the caller's member entry from their session
func (e *Engine) self(caller directory.Binding) model.Member {
	member := model.Member{ID: caller.PlayerID, Name: caller.Name}
	if sess, ok := e.sessions.Get(caller.PlayerID); ok {
		member.Avatar = sess.Avatar
	}
	return member
}

func (e *Engine) currentRoom(ctx context.Context, caller directory.Binding) (*model.Room, error) {
	return e.rooms.RoomOf(ctx, caller.PlayerID)
}

// Room handlers

func (e *Engine) createRoom(ctx context.Context, conn directory.Conn, caller directory.Binding, r protocol.CreateRoom) error {
	if err := validation.Check(r, createErrs); err != nil {
		return err
	}
	if !e.sessions.Authorize(caller.PlayerID, caller.ConnectionID, model.PlayerID(r.PlayerID)) {
		return model.ErrUnauthorized
	}

	previous, _ := e.currentRoom(ctx, caller)

	created, err := e.rooms.CreateRoom(ctx, caller.PlayerID, e.self(caller), room.CreateOptions{
		Name:     r.RoomName,
		Capacity: r.MaxPlayers,
		Private:  r.IsPrivate,
		Password: r.Password,
	})
	if err != nil {
		return err
	}
	if previous != nil {
		if err := e.leave(ctx, caller.PlayerID, previous); err != nil {
			e.logger.Error("failed to leave previous room", slog.String("error", err.Error()))
		}
	}

	e.send(conn, protocol.TypeRoomCreated, protocol.RoomPayload{Room: protocol.RoomFromModel(created)})
	e.publishLobby(ctx)
	return nil
}

func (e *Engine) joinRoom(ctx context.Context, conn directory.Conn, caller directory.Binding, ref, password string) error {
	if ref == "" {
		return model.ErrRoomNotFound
	}
	previous, _ := e.currentRoom(ctx, caller)

	joined, err := e.rooms.JoinRoom(ctx, ref, e.self(caller), password)
	if err != nil {
		return err
	}
	if previous != nil && previous.ID != joined.ID {
		if err := e.leave(ctx, caller.PlayerID, previous); err != nil {
			e.logger.Error("failed to leave previous room", slog.String("error", err.Error()))
		}
	}

	e.send(conn, protocol.TypeJoinedRoom, protocol.RoomPayload{Room: protocol.RoomFromModel(joined)})
	e.publishRoom(joined)
	e.publishLobby(ctx)
	return nil
}

func (e *Engine) leaveRoom(ctx context.Context, conn directory.Conn, caller directory.Binding) error {
	r, err := e.currentRoom(ctx, caller)
	if err != nil {
		return err
	}
	if err := e.leave(ctx, caller.PlayerID, r); err != nil {
		return err
	}
	e.send(conn, protocol.TypeLeftRoom, protocol.LeftRoom{RoomID: string(r.ID)})
	e.publishLobby(ctx)
	return nil
}

func (e *Engine) chat(ctx context.Context, caller directory.Binding, r protocol.Chat) error {
	current, err := e.currentRoom(ctx, caller)
	if err != nil {
		return err
	}
	text := validation.Sanitize(r.Message, e.cfg.ChatMaxLength)
	if text == "" {
		return model.ErrEmptyMessage
	}
	e.toRoom(current, protocol.TypeChat, protocol.ChatMessage{
		PlayerID:  string(caller.PlayerID),
		Name:      caller.Name,
		Message:   text,
		Timestamp: e.clock.Now().UnixMilli(),
	})
	return nil
}

func (e *Engine) setReady(ctx context.Context, caller directory.Binding, r protocol.PlayerReady) error {
	current, err := e.currentRoom(ctx, caller)
	if err != nil {
		return err
	}
	target := model.PlayerID(r.PlayerID)
	if target == "" {
		target = caller.PlayerID
	}

	updated, changed, err := e.rooms.SetReady(ctx, current.ID, caller.PlayerID, target, r.Ready)
	if err != nil || !changed {
		return err
	}
	e.publishRoom(updated)
	e.publishLobby(ctx)
	return nil
}

func (e *Engine) addBot(ctx context.Context, caller directory.Binding, r protocol.AddBot) error {
	current, err := e.currentRoom(ctx, caller)
	if err != nil {
		return err
	}
	updated, _, err := e.rooms.AddBot(ctx, current.ID, caller.PlayerID, r.Difficulty)
	if err != nil {
		return err
	}
	e.publishRoom(updated)
	e.publishLobby(ctx)
	return nil
}

func (e *Engine) kick(ctx context.Context, caller directory.Binding, r protocol.KickPlayer) error {
	if err := validation.Check(r, kickErrs); err != nil {
		return err
	}
	current, err := e.currentRoom(ctx, caller)
	if err != nil {
		return err
	}
	target := model.PlayerID(r.PlayerID)

	updated, removed, err := e.rooms.Kick(ctx, current.ID, caller.PlayerID, target)
	if err != nil {
		return err
	}
	if updated.Status == model.RoomStatusPlaying {
		e.dropFromGame(ctx, updated, target)
	}

	if !removed.IsBot {
		e.dir.SendTo(target, protocol.Encode(protocol.TypeKicked, protocol.Kicked{
			RoomID: string(updated.ID),
			By:     string(caller.PlayerID),
		}))
	}
	e.publishRoom(updated)
	e.publishLobby(ctx)
	return nil
}

// Game handlers

func (e *Engine) startGame(ctx context.Context, caller directory.Binding) error {
	current, err := e.currentRoom(ctx, caller)
	if err != nil {
		return err
	}
	g, err := e.games.Start(ctx, current, caller.PlayerID)
	if err != nil {
		return err
	}

	e.toRoom(current, protocol.TypeStartGame, protocol.GameStartedFromModel(current, g))
	e.publishRoom(current)
	e.publishLobby(ctx)
	return nil
}

// actor resolves whose seat a game action is for: the caller's own, or a
// bot's when the caller hosts the room and acts on its behalf.
func (e *Engine) actor(ctx context.Context, caller directory.Binding, claimed string) (*model.Room, model.PlayerID, error) {
	current, err := e.currentRoom(ctx, caller)
	if err != nil {
		return nil, "", err
	}
	if current.Status != model.RoomStatusPlaying {
		return nil, "", model.ErrGameNotFound
	}

	id := model.PlayerID(claimed)
	if id == "" || id == caller.PlayerID {
		return current, caller.PlayerID, nil
	}
	if m := current.GetMember(id); m != nil && m.IsBot && current.IsHost(caller.PlayerID) {
		return current, id, nil
	}
	return nil, "", model.ErrUnauthorized
}

func (e *Engine) playCards(ctx context.Context, caller directory.Binding, r protocol.PlayCards) error {
	if err := validation.Check(r, playErrs); err != nil {
		return err
	}
	current, actor, err := e.actor(ctx, caller, r.PlayerID)
	if err != nil {
		return err
	}

	result, err := e.games.RecordPlay(ctx, current, actor, r.Cards, r.ClaimedRank)
	if err != nil {
		return err
	}

	e.toRoom(current, protocol.TypePlayerPlayed, protocol.PlayerPlayed{
		PlayerID:    string(actor),
		Cards:       result.Cards,
		CardCount:   len(result.Cards),
		ClaimedRank: string(result.ClaimedRank),
		NextTurn:    string(result.NextTurn),
		PileSize:    result.PileSize,
	})
	return nil
}

func (e *Engine) pass(ctx context.Context, caller directory.Binding, r protocol.Pass) error {
	current, actor, err := e.actor(ctx, caller, r.PlayerID)
	if err != nil {
		return err
	}
	next, err := e.games.RecordPass(ctx, current, actor)
	if err != nil {
		return err
	}
	e.toRoom(current, protocol.TypePlayerPassed, protocol.PlayerPassed{
		PlayerID: string(actor),
		NextTurn: string(next),
	})
	return nil
}

func (e *Engine) check(ctx context.Context, caller directory.Binding, r protocol.Check) error {
	if err := validation.Check(r, checkErrs); err != nil {
		return err
	}
	current, actor, err := e.actor(ctx, caller, r.PlayerID)
	if err != nil {
		return err
	}

	result, err := e.games.RecordCheck(ctx, current, actor, model.PlayerID(r.LoserID))
	if err != nil {
		return err
	}

	e.toRoom(current, protocol.TypePlayerChecked, protocol.PlayerChecked{
		PlayerID:    string(actor),
		LoserID:     string(result.LoserID),
		CardsTaken:  result.Taken,
		CurrentTurn: string(result.Turn),
	})
	return nil
}
