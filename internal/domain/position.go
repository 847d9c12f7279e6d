package domain

import (
	"fmt"
	"strings"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan возвращает расстояние в шагах по 4-связной сетке (без учета стен)
func (p Position) Manhattan(other Position) int {
	return abs(p.X-other.X) + abs(p.Y-other.Y)
}

// IsAdjacent возвращает true, если клетки соседние по одной из 4 осей
func (p Position) IsAdjacent(other Position) bool {
	return p.Manhattan(other) == 1
}

// Shift возвращает новую позицию со смещением, не меняя текущую
func (p Position) Shift(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Step возвращает соседнюю клетку в направлении d
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return p.Shift(dx, dy)
}

// DirectionTo возвращает направление на соседнюю клетку.
// ok == false, если клетки не соседние.
func (p Position) DirectionTo(next Position) (Direction, bool) {
	for _, d := range Directions {
		if p.Step(d) == next {
			return d, true
		}
	}
	return DirNone, false
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction - одно из 4 направлений движения
type Direction uint8

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Directions фиксирует порядок обхода соседей.
// От этого порядка зависит форма путей A*, поэтому менять его нельзя.
var Directions = [4]Direction{DirUp, DirDown, DirLeft, DirRight}

// Маппинг для конвертации протокола -> Domain
var directionStringToDir = map[string]Direction{
	"UP":    DirUp,
	"DOWN":  DirDown,
	"LEFT":  DirLeft,
	"RIGHT": DirRight,
}

var directionDirToString = map[Direction]string{
	DirUp:    "UP",
	DirDown:  "DOWN",
	DirLeft:  "LEFT",
	DirRight: "RIGHT",
}

// ParseDirection конвертирует строку в Direction (регистр не важен)
func ParseDirection(s string) Direction {
	if val, ok := directionStringToDir[strings.ToUpper(s)]; ok {
		return val
	}
	return DirNone
}

func (d Direction) String() string {
	if val, ok := directionDirToString[d]; ok {
		return val
	}
	return "NONE"
}

// Delta возвращает смещение клетки. Ось Y направлена вверх, как на сервере.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, 1
	case DirDown:
		return 0, -1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
