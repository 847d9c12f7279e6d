// Package sim - локальный детерминированный мир доставки.
// Реализует транспорт агента (move/pickup/putdown) и выдает перцепты
// с учетом радиуса наблюдения.
package sim

import (
	"context"
	"deliveroo-agent/internal/domain"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

var (
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrDuplicateAgent = errors.New("agent already exists")
	ErrUnreachable    = errors.New("tile is not reachable")
	ErrOccupied       = errors.New("tile is occupied")
)

type Settings struct {
	ObservationRange int
	// DecayInterval - посылка теряет 1 награды за интервал. 0 - без распада.
	DecayInterval    time.Duration
	MovementDuration time.Duration
}

type worldAgent struct {
	id    string
	pos   domain.Position
	score float64
}

type worldItem struct {
	id        string
	pos       domain.Position
	reward    float64
	bornAt    time.Time
	carriedBy string
}

// Percept - то, что агент видит за один тик
type Percept struct {
	Self   domain.AgentSnapshot
	Items  []domain.Item
	Agents []domain.AgentSnapshot
}

type World struct {
	mu       sync.Mutex
	types    [][]domain.TileType
	grid     *domain.Grid
	settings Settings
	clock    *Clock

	agents   map[string]*worldAgent
	items    map[string]*worldItem
	nextItem int
}

func NewWorld(types [][]domain.TileType, s Settings, clock *Clock) (*World, error) {
	g, err := domain.NewGrid(types)
	if err != nil {
		return nil, fmt.Errorf("sim world: %w", err)
	}
	if clock == nil {
		clock = NewClock(time.Now())
	}
	return &World{
		types:    types,
		grid:     g,
		settings: s,
		clock:    clock,
		agents:   make(map[string]*worldAgent),
		items:    make(map[string]*worldItem),
	}, nil
}

func (w *World) Grid() *domain.Grid         { return w.grid }
func (w *World) Types() [][]domain.TileType { return w.types }
func (w *World) Settings() Settings         { return w.settings }
func (w *World) Clock() *Clock              { return w.clock }

func (w *World) AddAgent(id string, pos domain.Position) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.agents[id]; ok {
		return fmt.Errorf("%s: %w", id, ErrDuplicateAgent)
	}
	if !w.grid.IsReachable(pos) {
		return fmt.Errorf("%s at %s: %w", id, pos, ErrUnreachable)
	}
	if w.occupiedLocked(pos, "") {
		return fmt.Errorf("%s at %s: %w", id, pos, ErrOccupied)
	}
	w.agents[id] = &worldAgent{id: id, pos: pos}
	return nil
}

// AddItem кладет посылку на клетку и возвращает ее ID
func (w *World) AddItem(pos domain.Position, reward float64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.grid.IsReachable(pos) {
		return "", fmt.Errorf("item at %s: %w", pos, ErrUnreachable)
	}
	w.nextItem++
	id := fmt.Sprintf("p%d", w.nextItem)
	w.items[id] = &worldItem{id: id, pos: pos, reward: reward, bornAt: w.clock.Now()}
	return id, nil
}

// SpawnItems докладывает посылки на случайные свободные спавны, пока их меньше limit
func (w *World) SpawnItems(rng *rand.Rand, limit int, reward float64) []string {
	w.mu.Lock()
	free := 0
	taken := make(map[domain.Position]bool)
	for _, it := range w.items {
		if it.carriedBy == "" {
			free++
			taken[it.pos] = true
		}
	}
	var spots []domain.Position
	for _, s := range w.grid.Spawns {
		if !taken[s] {
			spots = append(spots, s)
		}
	}
	w.mu.Unlock()

	var ids []string
	for free < limit && len(spots) > 0 {
		i := rng.Intn(len(spots))
		id, err := w.AddItem(spots[i], reward)
		if err != nil {
			break
		}
		ids = append(ids, id)
		spots = append(spots[:i], spots[i+1:]...)
		free++
	}
	return ids
}

func (w *World) Score(id string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if a, ok := w.agents[id]; ok {
		return a.score
	}
	return 0
}

func (w *World) Position(id string) (domain.Position, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.agents[id]
	if !ok {
		return domain.Position{}, false
	}
	return a.pos, true
}

// Carrier - кто несет посылку. Пусто, если лежит или ее уже нет.
func (w *World) Carrier(itemID string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if it, ok := w.items[itemID]; ok {
		return it.carriedBy
	}
	return ""
}

// Percept собирает видимое агенту. Видно все, что ближе радиуса наблюдения.
func (w *World) Percept(id string) (Percept, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	me, ok := w.agents[id]
	if !ok {
		return Percept{}, fmt.Errorf("%s: %w", id, ErrUnknownAgent)
	}
	w.pruneLocked()

	p := Percept{Self: domain.AgentSnapshot{ID: me.id, Pos: me.pos, Score: int(me.score)}}
	for _, it := range w.items {
		if it.carriedBy == id {
			p.Self.Carried++
		}
		if it.carriedBy != id && !w.visible(me.pos, it.pos) {
			continue
		}
		p.Items = append(p.Items, domain.Item{
			ID:        it.id,
			Pos:       it.pos,
			Reward:    w.rewardLocked(it),
			CarriedBy: it.carriedBy,
		})
	}
	sort.Slice(p.Items, func(i, j int) bool { return p.Items[i].ID < p.Items[j].ID })

	for _, other := range w.agents {
		if other.id == id || !w.visible(me.pos, other.pos) {
			continue
		}
		p.Agents = append(p.Agents, domain.AgentSnapshot{
			ID:      other.id,
			Pos:     other.pos,
			Carried: w.carriedLocked(other.id),
			Score:   int(other.score),
		})
	}
	sort.Slice(p.Agents, func(i, j int) bool { return p.Agents[i].ID < p.Agents[j].ID })
	return p, nil
}

func (w *World) visible(from, p domain.Position) bool {
	return w.settings.ObservationRange <= 0 || from.Manhattan(p) < w.settings.ObservationRange
}

func (w *World) rewardLocked(it *worldItem) float64 {
	if w.settings.DecayInterval <= 0 {
		return it.reward
	}
	elapsed := w.clock.Now().Sub(it.bornAt)
	return it.reward - math.Floor(float64(elapsed)/float64(w.settings.DecayInterval))
}

// pruneLocked убирает распавшиеся посылки, в том числе несомые
func (w *World) pruneLocked() {
	for id, it := range w.items {
		if w.rewardLocked(it) <= 0 {
			delete(w.items, id)
		}
	}
}

func (w *World) carriedLocked(agentID string) int {
	n := 0
	for _, it := range w.items {
		if it.carriedBy == agentID {
			n++
		}
	}
	return n
}

func (w *World) occupiedLocked(p domain.Position, except string) bool {
	for _, a := range w.agents {
		if a.id != except && a.pos == p {
			return true
		}
	}
	return false
}

// --- Действия ---

func (w *World) move(id string, dir domain.Direction) (domain.Position, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, ok := w.agents[id]
	if !ok {
		return domain.Position{}, false, fmt.Errorf("%s: %w", id, ErrUnknownAgent)
	}
	next := a.pos.Step(dir)
	if !w.grid.IsReachable(next) || w.occupiedLocked(next, id) {
		return a.pos, false, nil
	}
	a.pos = next
	for _, it := range w.items {
		if it.carriedBy == id {
			it.pos = next
		}
	}
	return next, true, nil
}

// pickup забирает все свободные посылки на клетке агента
func (w *World) pickup(id string) ([]string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, ok := w.agents[id]
	if !ok {
		return nil, false, fmt.Errorf("%s: %w", id, ErrUnknownAgent)
	}
	w.pruneLocked()
	var ids []string
	for _, it := range w.items {
		if it.carriedBy == "" && it.pos == a.pos {
			it.carriedBy = id
			ids = append(ids, it.id)
		}
	}
	sort.Strings(ids)
	return ids, len(ids) > 0, nil
}

// putdown на клетке доставки засчитывает награду, иначе оставляет посылки на клетке
func (w *World) putdown(id string) ([]string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, ok := w.agents[id]
	if !ok {
		return nil, false, fmt.Errorf("%s: %w", id, ErrUnknownAgent)
	}
	w.pruneLocked()
	delivery := w.grid.IsDelivery(a.pos)
	var ids []string
	for itemID, it := range w.items {
		if it.carriedBy != id {
			continue
		}
		ids = append(ids, itemID)
		if delivery {
			a.score += w.rewardLocked(it)
			delete(w.items, itemID)
			continue
		}
		it.carriedBy = ""
		it.pos = a.pos
	}
	sort.Strings(ids)
	return ids, len(ids) > 0, nil
}

// Client - транспорт одного агента поверх мира
type Client struct {
	world *World
	id    string
}

func (w *World) Client(id string) *Client {
	return &Client{world: w, id: id}
}

func (c *Client) Move(ctx context.Context, dir domain.Direction) (domain.Position, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Position{}, false, err
	}
	return c.world.move(c.id, dir)
}

func (c *Client) Pickup(ctx context.Context, _ string) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return c.world.pickup(c.id)
}

func (c *Client) Putdown(ctx context.Context) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return c.world.putdown(c.id)
}
