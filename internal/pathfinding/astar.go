// Package pathfinding реализует A* по статической карте с учетом агентов.
//
// Пустой результат - нормальный исход ("сейчас недостижимо"), а не ошибка.
package pathfinding

import (
	"container/heap"
	"deliveroo-agent/internal/domain"
)

// PolicyMode - как относиться к клеткам, занятым другими агентами
type PolicyMode uint8

const (
	// BlockAgents - каждая клетка с другим агентом непроходима (по умолчанию)
	BlockAgents PolicyMode = iota
	// IgnoreAgents - агенты не учитываются (статический анализ карты)
	IgnoreAgents
	// IgnoreSome - непроходимы все агенты, кроме перечисленных
	IgnoreSome
)

// Policy - политика препятствий для одного запроса
type Policy struct {
	Mode   PolicyMode
	Ignore map[string]bool
}

func BlockAll() Policy  { return Policy{Mode: BlockAgents} }
func IgnoreAll() Policy { return Policy{Mode: IgnoreAgents} }

// Ignoring пропускает сквозь агентов с указанными ID (обычно партнера)
func Ignoring(ids ...string) Policy {
	ignore := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			ignore[id] = true
		}
	}
	return Policy{Mode: IgnoreSome, Ignore: ignore}
}

func (p Policy) blocks(agentID string) bool {
	switch p.Mode {
	case IgnoreAgents:
		return false
	case IgnoreSome:
		return !p.Ignore[agentID]
	}
	return true
}

// Finder ищет пути по одной карте
type Finder struct {
	grid *domain.Grid
}

func NewFinder(g *domain.Grid) *Finder {
	return &Finder{grid: g}
}

func (f *Finder) Grid() *domain.Grid { return f.grid }

// FindPath возвращает клетки пути без стартовой.
// Пустой слайс, если пути нет или from == to.
// agents - другие агенты (себя передавать не нужно).
func (f *Finder) FindPath(from, to domain.Position, policy Policy, agents []domain.AgentSnapshot) []domain.Position {
	g := f.grid
	if from == to || !g.IsReachable(from) || !g.IsReachable(to) {
		return nil
	}

	blocked := make(map[int]bool)
	for _, a := range agents {
		if a.Pos == from || !policy.blocks(a.ID) {
			continue
		}
		blocked[g.Index(a.Pos)] = true
	}
	if blocked[g.Index(to)] {
		return nil
	}

	open := make(openSet, 0, 16)
	heap.Init(&open)

	best := make(map[int]*openNode) // лучший известный узел на координату
	closed := make(map[int]bool)
	cameFrom := make(map[int]domain.Position)
	seq := 0

	start := &openNode{Pos: from, G: 0, H: from.Manhattan(to), Seq: seq}
	heap.Push(&open, start)
	best[g.Index(from)] = start

	for open.Len() > 0 {
		cur := heap.Pop(&open).(*openNode)
		curKey := g.Index(cur.Pos)
		delete(best, curKey)

		if cur.Pos == to {
			return reconstruct(g, cameFrom, from, to)
		}
		closed[curKey] = true

		for _, n := range g.Neighbors(cur.Pos) {
			key := g.Index(n)
			if closed[key] || blocked[key] {
				continue
			}
			tentative := cur.G + 1
			if node, ok := best[key]; ok {
				if tentative < node.G {
					cameFrom[key] = cur.Pos
					open.improve(node, tentative)
				}
				continue
			}
			seq++
			node := &openNode{Pos: n, G: tentative, H: n.Manhattan(to), Seq: seq}
			cameFrom[key] = cur.Pos
			best[key] = node
			heap.Push(&open, node)
		}
	}

	return nil
}

// Distance возвращает длину пути в шагах; ok == false, если пути нет.
// Для from == to возвращает 0, true.
func (f *Finder) Distance(from, to domain.Position, policy Policy, agents []domain.AgentSnapshot) (int, bool) {
	if from == to {
		return 0, f.grid.IsReachable(from)
	}
	path := f.FindPath(from, to, policy, agents)
	if len(path) == 0 {
		return 0, false
	}
	return len(path), true
}

func reconstruct(g *domain.Grid, cameFrom map[int]domain.Position, from, to domain.Position) []domain.Position {
	var rev []domain.Position
	for cur := to; cur != from; cur = cameFrom[g.Index(cur)] {
		rev = append(rev, cur)
	}
	path := make([]domain.Position, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}
