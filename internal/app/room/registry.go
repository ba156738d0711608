package room

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"chessrooms/internal/app/rules"
	"chessrooms/internal/pkg/logx"
)

// Registry owns every Room and the index from connection id to room code.
//
// Lock order is room before registry: code holding a room lock may call into the
// registry, but the registry never waits for a room lock while holding its own.
type Registry struct {
	// mu protects rooms and members.
	mu sync.RWMutex

	// rooms maps normalized room code to Room.
	rooms map[string]*Room

	// members maps connection id to the code of the room it belongs to.
	members map[string]string

	engine       rules.Engine
	chatCapacity int

	logger zerolog.Logger
}

// NewRegistry creates an empty registry. New rooms start from engine.NewPosition and
// keep at most chatCapacity chat messages.
func NewRegistry(engine rules.Engine, chatCapacity int) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		members:      make(map[string]string),
		engine:       engine,
		chatCapacity: chatCapacity,
		logger:       logx.Component("Registry"),
	}
}

// Get returns the room for code without locking it, or nil.
func (g *Registry) Get(code string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.rooms[code]
}

// GetLocked returns the room for code locked by the caller, or nil if there is none.
// The caller must Unlock it.
func (g *Registry) GetLocked(code string) *Room {
	for {
		r := g.Get(code)
		if r == nil {
			return nil
		}

		r.Lock()
		if !r.removed {
			return r
		}
		// dropped while we waited; look again
		r.Unlock()
	}
}

// GetOrCreate returns the room for code locked by the caller. When no room exists it
// is created with first seated as white and the starting position, and created is
// true. When a room exists it is returned unchanged and first is not seated.
// The caller must Unlock the returned room.
func (g *Registry) GetOrCreate(code string, first Participant) (r *Room, created bool) {
	for {
		g.mu.Lock()
		existing, ok := g.rooms[code]
		if !ok {
			r = newRoom(code, g.engine.NewPosition(), g.chatCapacity)
			r.AddPlayer(first)
			// nobody else can hold the fresh room's lock yet
			r.Lock()
			g.rooms[code] = r
			g.mu.Unlock()

			g.logger.Info().Str("room_code", code).Int("total_rooms", g.Len()).Msg("New Room created.")
			return r, true
		}
		g.mu.Unlock()

		existing.Lock()
		if !existing.removed {
			return existing, false
		}
		existing.Unlock()
	}
}

// Remove drops r from the registry. It must be called with r locked, exactly when r
// has no players and no spectators. Later lookups of r.Code find nothing until a new
// room is created.
func (g *Registry) Remove(r *Room) {
	r.removed = true

	g.mu.Lock()
	defer g.mu.Unlock()

	if current, ok := g.rooms[r.Code]; ok && current == r {
		delete(g.rooms, r.Code)
		g.logger.Info().Str("room_code", r.Code).Int("total_rooms", len(g.rooms)).Msg("Room successfully removed.")
	}
}

// Bind records that connID belongs to the room with code.
func (g *Registry) Bind(connID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.members[connID] = code
}

// Unbind forgets connID if it is bound to code.
func (g *Registry) Unbind(connID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.members[connID] == code {
		delete(g.members, connID)
	}
}

// Lookup returns the room code connID belongs to.
func (g *Registry) Lookup(connID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	code, ok := g.members[connID]
	return code, ok
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}

// Codes returns the codes of all live rooms, sorted.
func (g *Registry) Codes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	codes := make([]string, 0, len(g.rooms))
	for code := range g.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Engine returns the rules engine rooms are created with.
func (g *Registry) Engine() rules.Engine {
	return g.engine
}
