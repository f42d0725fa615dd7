package model

import "time"

// RoomID is the internal identifier of a room
type RoomID string

// RoomCode is the short human-shareable join code of a room
type RoomCode string

// RoomStatus represents where a room is in its lifecycle
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusPlaying RoomStatus = "playing" // one-way, a room never returns to waiting
)

// Room is a capacity-bounded lobby that becomes a game once started
type Room struct {
	ID           RoomID
	Code         RoomCode
	Name         string
	Host         PlayerID
	Capacity     int
	Players      []Member // seating order
	Status       RoomStatus
	PasswordHash string
	Private      bool
	CreatedAt    time.Time
}

// GetMember returns the member with the given ID, or nil
func (r *Room) GetMember(id PlayerID) *Member {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// HasMember checks if a player is seated in the room
func (r *Room) HasMember(id PlayerID) bool {
	return r.GetMember(id) != nil
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(id PlayerID) bool {
	return r.Host == id
}

// IsFull reports whether no more members fit
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Capacity
}

// HasPassword reports whether joining requires a password
func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

// HumanCount returns the number of non-bot members
func (r *Room) HumanCount() int {
	count := 0
	for _, m := range r.Players {
		if !m.IsBot {
			count++
		}
	}
	return count
}

// RemoveMember removes a member and reassigns the host if they held it.
// The host goes to the first human member, falling back to the first member.
func (r *Room) RemoveMember(id PlayerID) (Member, bool) {
	for i, m := range r.Players {
		if m.ID != id {
			continue
		}
		r.Players = append(r.Players[:i], r.Players[i+1:]...)
		if r.Host == id {
			r.reassignHost()
		}
		return m, true
	}
	return Member{}, false
}

func (r *Room) reassignHost() {
	r.Host = ""
	for _, m := range r.Players {
		if !m.IsBot {
			r.Host = m.ID
			return
		}
	}
	if len(r.Players) > 0 {
		r.Host = r.Players[0].ID
	}
}

// NextPlayer returns the member seated after the given one, wrapping around.
// If the player is no longer seated the first member is returned.
func (r *Room) NextPlayer(id PlayerID) PlayerID {
	if len(r.Players) == 0 {
		return ""
	}
	for i, m := range r.Players {
		if m.ID == id {
			return r.Players[(i+1)%len(r.Players)].ID
		}
	}
	return r.Players[0].ID
}
