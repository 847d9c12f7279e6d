package pathfinding

import (
	"container/heap"
	"deliveroo-agent/internal/domain"
)

// openNode - элемент открытого множества A*
type openNode struct {
	Pos   domain.Position
	G     int // пройдено шагов
	H     int // эвристика (Манхэттен до цели)
	Seq   int // порядок вставки, для детерминизма
	Index int // индекс в куче (нужен для Fix)
}

func (n *openNode) F() int { return n.G + n.H }

// openSet реализует heap.Interface.
// Порядок: меньший F, при равенстве меньший H, затем более ранняя вставка.
type openSet []*openNode

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	fi, fj := pq[i].F(), pq[j].F()
	if fi != fj {
		return fi < fj
	}
	if pq[i].H != pq[j].H {
		return pq[i].H < pq[j].H
	}
	return pq[i].Seq < pq[j].Seq
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *openSet) Push(x interface{}) {
	n := len(*pq)
	item := x.(*openNode)
	item.Index = n
	*pq = append(*pq, item)
}

func (pq *openSet) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // избегаем утечки памяти
	item.Index = -1 // для безопасности
	*pq = old[0 : n-1]
	return item
}

// improve снижает G узла, который уже лежит в куче
func (pq *openSet) improve(item *openNode, g int) {
	item.G = g
	heap.Fix(pq, item.Index)
}
