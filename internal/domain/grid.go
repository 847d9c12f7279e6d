package domain

import (
	"errors"
	"fmt"
)

// TileType - тип клетки в том виде, в каком его присылает сервер
type TileType uint8

const (
	TileWall     TileType = 0
	TileSpawn    TileType = 1 // зеленая клетка, здесь появляются посылки
	TileDelivery TileType = 2 // красная клетка, здесь посылки сдаются
	TileFloor    TileType = 3
)

var (
	ErrEmptyMap  = errors.New("map is empty")
	ErrRaggedMap = errors.New("map rows have different length")
)

// Tile - одна клетка карты. Создается при загрузке карты и больше не меняется.
type Tile struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Reachable  bool `json:"reachable"`
	IsSpawn    bool `json:"isSpawn"`
	IsDelivery bool `json:"isDelivery"`

	// Neighbors - только проходимые соседи по 4 осям, в порядке Directions
	Neighbors []Position `json:"-"`
}

// Grid - статическая карта мира
type Grid struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Tiles  [][]Tile `json:"-"` // Tiles[y][x]

	Spawns     []Position `json:"spawns"`
	Deliveries []Position `json:"deliveries"`
}

// NewGrid строит карту из матрицы типов types[y][x] и один раз считает соседей.
func NewGrid(types [][]TileType) (*Grid, error) {
	if len(types) == 0 || len(types[0]) == 0 {
		return nil, ErrEmptyMap
	}
	height := len(types)
	width := len(types[0])

	g := &Grid{
		Width:  width,
		Height: height,
		Tiles:  make([][]Tile, height),
	}

	for y := 0; y < height; y++ {
		if len(types[y]) != width {
			return nil, fmt.Errorf("row %d: %w", y, ErrRaggedMap)
		}
		g.Tiles[y] = make([]Tile, width)
		for x := 0; x < width; x++ {
			t := types[y][x]
			tile := Tile{
				X:          x,
				Y:          y,
				Reachable:  t != TileWall,
				IsSpawn:    t == TileSpawn,
				IsDelivery: t == TileDelivery,
			}
			g.Tiles[y][x] = tile
			if tile.IsSpawn {
				g.Spawns = append(g.Spawns, Position{X: x, Y: y})
			}
			if tile.IsDelivery {
				g.Deliveries = append(g.Deliveries, Position{X: x, Y: y})
			}
		}
	}

	// Соседей считаем после того, как вся карта известна
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tile := &g.Tiles[y][x]
			if !tile.Reachable {
				continue
			}
			p := Position{X: x, Y: y}
			for _, d := range Directions {
				n := p.Step(d)
				if g.IsReachable(n) {
					tile.Neighbors = append(tile.Neighbors, n)
				}
			}
		}
	}

	return g, nil
}

func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Index возвращает плоский ключ клетки: Y * Width + X
func (g *Grid) Index(p Position) int {
	return p.Y*g.Width + p.X
}

// At возвращает index -> Position
func (g *Grid) At(index int) Position {
	return Position{X: index % g.Width, Y: index / g.Width}
}

// Tile возвращает клетку или nil за пределами карты
func (g *Grid) Tile(p Position) *Tile {
	if !g.InBounds(p) {
		return nil
	}
	return &g.Tiles[p.Y][p.X]
}

func (g *Grid) IsReachable(p Position) bool {
	t := g.Tile(p)
	return t != nil && t.Reachable
}

func (g *Grid) IsSpawn(p Position) bool {
	t := g.Tile(p)
	return t != nil && t.IsSpawn
}

func (g *Grid) IsDelivery(p Position) bool {
	t := g.Tile(p)
	return t != nil && t.IsDelivery
}

// Neighbors возвращает предпосчитанный список проходимых соседей
func (g *Grid) Neighbors(p Position) []Position {
	t := g.Tile(p)
	if t == nil {
		return nil
	}
	return t.Neighbors
}

// ReachableTiles возвращает все проходимые клетки в порядке строк
func (g *Grid) ReachableTiles() []Position {
	var out []Position
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Tiles[y][x].Reachable {
				out = append(out, Position{X: x, Y: y})
			}
		}
	}
	return out
}
