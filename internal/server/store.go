package server

import (
	"sort"
	"sync"

	"fill-the-blank/internal/web"
)

// Store indexes the live room actors by room code.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*roomActor
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*roomActor)}
}

// reserve registers the actor under a fresh room code.
func (s *Store) reserve(build func(code string) *roomActor) *roomActor {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := newJoinCode()
	for {
		if _, taken := s.rooms[code]; !taken {
			break
		}
		code = newJoinCode()
	}
	actor := build(code)
	s.rooms[code] = actor
	return actor
}

func (s *Store) add(actor *roomActor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[actor.id] = actor
}

func (s *Store) get(id string) (*roomActor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.rooms[id]
	return actor, ok
}

// remove drops the room and stops its actor. It is safe to call twice.
func (s *Store) remove(id string) {
	s.mu.Lock()
	actor, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if ok {
		actor.stop()
	}
}

func (s *Store) all() []*roomActor {
	s.mu.Lock()
	defer s.mu.Unlock()
	actors := make([]*roomActor, 0, len(s.rooms))
	for _, actor := range s.rooms {
		actors = append(actors, actor)
	}
	return actors
}

func (s *Store) summaries() []web.RoomSummary {
	actors := s.all()
	out := make([]web.RoomSummary, 0, len(actors))
	for _, actor := range actors {
		if summary := actor.summary.Load(); summary != nil {
			out = append(out, *summary)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) closeAll() {
	s.mu.Lock()
	actors := make([]*roomActor, 0, len(s.rooms))
	for id, actor := range s.rooms {
		actors = append(actors, actor)
		delete(s.rooms, id)
	}
	s.mu.Unlock()
	for _, actor := range actors {
		actor.stop()
	}
}
