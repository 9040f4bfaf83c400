package game

import (
	"errors"
	"testing"
)

func newTestPlayer(sessionID uint32, username string) *Player {
	return &Player{SessionID: sessionID, Username: username, State: StateInLobby}
}

func TestRoomCapacity(t *testing.T) {
	room := newRoom(1, "test", 2, RoomPublic)

	if err := room.AddPlayer(newTestPlayer(1, "a"), false); err != nil {
		t.Fatalf("AddPlayer(1): %v", err)
	}
	if err := room.AddPlayer(newTestPlayer(2, "b"), false); err != nil {
		t.Fatalf("AddPlayer(2): %v", err)
	}
	if err := room.AddPlayer(newTestPlayer(3, "c"), false); !errors.Is(err, ErrRoomFull) {
		t.Errorf("AddPlayer(3) = %v, ожидали ErrRoomFull", err)
	}

	// Зрители не занимают слоты.
	if err := room.AddPlayer(newTestPlayer(4, "d"), true); err != nil {
		t.Errorf("AddPlayer(зритель) = %v", err)
	}
	if got := room.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, ожидали 2", got)
	}
	if got := room.Len(); got != 3 {
		t.Errorf("Len = %d, ожидали 3", got)
	}
}

func TestRoomBan(t *testing.T) {
	room := newRoom(1, "test", 4, RoomPublic)
	room.Ban("cheater")

	err := room.AddPlayer(newTestPlayer(1, "cheater"), false)
	if !errors.Is(err, ErrBanned) {
		t.Errorf("AddPlayer(забаненый) = %v, ожидали ErrBanned", err)
	}
	if err := room.AddPlayer(newTestPlayer(2, "honest"), false); err != nil {
		t.Errorf("AddPlayer(честный) = %v", err)
	}
}

func TestRoomLifecycle(t *testing.T) {
	room := newRoom(1, "test", 4, RoomPublic)
	if err := room.AddPlayer(newTestPlayer(1, "a"), false); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}

	if err := room.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if room.State() != RoomInGame {
		t.Errorf("State = %v, ожидали RoomInGame", room.State())
	}
	if err := room.Start(); !errors.Is(err, ErrBadState) {
		t.Errorf("повторный Start = %v, ожидали ErrBadState", err)
	}

	if err := room.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := room.Finish(); !errors.Is(err, ErrBadState) {
		t.Errorf("повторный Finish = %v, ожидали ErrBadState", err)
	}
}

func TestLobbyNeverStarts(t *testing.T) {
	rr := NewRoomRegistry()
	if err := rr.Lobby().Start(); !errors.Is(err, ErrBadState) {
		t.Errorf("Start(лобби) = %v, ожидали ErrBadState", err)
	}
}

func TestRoomJoinDuringGame(t *testing.T) {
	room := newRoom(1, "test", 4, RoomPublic)
	if err := room.AddPlayer(newTestPlayer(1, "a"), false); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := room.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := room.AddPlayer(newTestPlayer(2, "late"), false); !errors.Is(err, ErrRoomInGame) {
		t.Errorf("AddPlayer(в матч) = %v, ожидали ErrRoomInGame", err)
	}

	spectator := newTestPlayer(3, "watcher")
	if err := room.AddPlayer(spectator, true); err != nil {
		t.Fatalf("AddPlayer(зритель) = %v", err)
	}
	if !spectator.Spectator {
		t.Error("зритель не помечен как Spectator")
	}

	if err := room.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := room.AddPlayer(newTestPlayer(4, "x"), false); !errors.Is(err, ErrRoomFinished) {
		t.Errorf("AddPlayer(завершённая) = %v, ожидали ErrRoomFinished", err)
	}
}

func TestAllReady(t *testing.T) {
	room := newRoom(1, "test", 4, RoomPublic)
	if room.AllReady() {
		t.Error("пустая комната не может быть готова")
	}

	a, b := newTestPlayer(1, "a"), newTestPlayer(2, "b")
	room.AddPlayer(a, false)
	room.AddPlayer(b, false)

	a.IsReady = true
	if room.AllReady() {
		t.Error("AllReady = true при одном неготовом игроке")
	}
	b.IsReady = true
	if !room.AllReady() {
		t.Error("AllReady = false при всех готовых")
	}

	// Зритель не влияет на готовность.
	room.AddPlayer(newTestPlayer(3, "w"), true)
	if !room.AllReady() {
		t.Error("зритель заблокировал готовность")
	}
}

func TestRegistryRemoveProtectsLobby(t *testing.T) {
	rr := NewRoomRegistry()
	rr.Remove(LobbyRoomID)
	if _, ok := rr.Get(LobbyRoomID); !ok {
		t.Fatal("лобби удалено из реестра")
	}

	room := rr.Create(1, "temp", 4, 1, 100, 10, RoomPublic, 1, 42)
	rr.Remove(room.ID)
	if _, ok := rr.Get(room.ID); ok {
		t.Error("комната не удалена")
	}
}
