// Package zones делит клетки спавна между двумя агентами для режима NORMAL.
package zones

import (
	"deliveroo-agent/internal/domain"
	"sort"
)

// Partition делит спавны на два кластера и раздает их агентам.
//
// Затравки - самая дальняя пара (первая найденная). Клетки назначаются по
// убыванию уверенности |d1-d2| к ближайшей затравке, пока кластер не заполнен
// до ceil(n/2). Меньший ID получает кластер первой затравки.
// Результат детерминирован для одного и того же набора спавнов и ID.
func Partition(spawns []domain.Position, agentIDs []string) map[string][]domain.Position {
	out := make(map[string][]domain.Position, len(agentIDs))
	if len(agentIDs) == 0 {
		return out
	}

	ids := append([]string(nil), agentIDs...)
	sort.SliceStable(ids, func(i, j int) bool { return domain.CompareAgentIDs(ids[i], ids[j]) < 0 })

	// Двух кластеров не получится - всем все
	if len(ids) < 2 || len(spawns) < 2 {
		for _, id := range ids {
			out[id] = append([]domain.Position(nil), spawns...)
		}
		return out
	}

	seedA, seedB := farthestPair(spawns)

	type scored struct {
		idx        int
		confidence int
		toA        bool
	}
	order := make([]scored, len(spawns))
	for i, p := range spawns {
		da := p.Manhattan(spawns[seedA])
		db := p.Manhattan(spawns[seedB])
		order[i] = scored{idx: i, confidence: abs(da - db), toA: da <= db}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].confidence > order[j].confidence })

	capacity := (len(spawns) + 1) / 2
	var clusterA, clusterB []int
	for _, s := range order {
		switch {
		case s.toA && len(clusterA) < capacity:
			clusterA = append(clusterA, s.idx)
		case !s.toA && len(clusterB) < capacity:
			clusterB = append(clusterB, s.idx)
		case len(clusterA) < capacity:
			clusterA = append(clusterA, s.idx)
		default:
			clusterB = append(clusterB, s.idx)
		}
	}

	out[ids[0]] = collect(spawns, clusterA)
	out[ids[1]] = collect(spawns, clusterB)
	return out
}

// Contains сообщает, попадает ли клетка p в зону: ближайший к ней спавн лежит в зоне
func Contains(zone, allSpawns []domain.Position, p domain.Position) bool {
	if len(zone) == 0 || len(allSpawns) == 0 {
		return false
	}
	nearest := allSpawns[0]
	best := p.Manhattan(nearest)
	for _, s := range allSpawns[1:] {
		if d := p.Manhattan(s); d < best {
			nearest, best = s, d
		}
	}
	for _, z := range zone {
		if z == nearest {
			return true
		}
	}
	return false
}

func farthestPair(spawns []domain.Position) (int, int) {
	a, b, best := 0, 1, -1
	for i := 0; i < len(spawns); i++ {
		for j := i + 1; j < len(spawns); j++ {
			if d := spawns[i].Manhattan(spawns[j]); d > best {
				a, b, best = i, j, d
			}
		}
	}
	return a, b
}

// collect возвращает клетки в исходном порядке спавнов
func collect(spawns []domain.Position, idx []int) []domain.Position {
	sort.Ints(idx)
	out := make([]domain.Position, 0, len(idx))
	for _, i := range idx {
		out = append(out, spawns[i])
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
