// Package mapgen собирает карты из текстовых шаблонов.
// Используется в тестах и в локальном симуляторе.
//
// Легенда:
//
//	# - стена
//	. - пол
//	S - клетка спавна посылок
//	D - клетка доставки
//
// Первая строка шаблона соответствует y = 0.
package mapgen

import (
	"bufio"
	"deliveroo-agent/internal/domain"
	"fmt"
	"io"
	"os"
	"strings"
)

var legend = map[rune]domain.TileType{
	'#': domain.TileWall,
	'.': domain.TileFloor,
	'S': domain.TileSpawn,
	'D': domain.TileDelivery,
}

// ParseTypes конвертирует строки шаблона в матрицу types[y][x]
func ParseTypes(rows []string) ([][]domain.TileType, error) {
	types := make([][]domain.TileType, 0, len(rows))
	for y, row := range rows {
		line := make([]domain.TileType, 0, len(row))
		for x, r := range row {
			t, ok := legend[r]
			if !ok {
				return nil, fmt.Errorf("unknown tile %q at (%d,%d)", r, x, y)
			}
			line = append(line, t)
		}
		types = append(types, line)
	}
	return types, nil
}

// Parse строит domain.Grid из шаблона
func Parse(rows ...string) (*domain.Grid, error) {
	types, err := ParseTypes(rows)
	if err != nil {
		return nil, err
	}
	return domain.NewGrid(types)
}

// MustParse - вариант для тестов и фикстур
func MustParse(rows ...string) *domain.Grid {
	g, err := Parse(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

// ReadTypes читает шаблон из потока. Пустые строки и строки с ';' в начале пропускаются.
func ReadTypes(r io.Reader) ([][]domain.TileType, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return ParseTypes(rows)
}

// Read - то же, что ReadTypes, но сразу строит карту
func Read(r io.Reader) (*domain.Grid, error) {
	types, err := ReadTypes(r)
	if err != nil {
		return nil, err
	}
	return domain.NewGrid(types)
}

// LoadTypes читает шаблон из файла
func LoadTypes(path string) ([][]domain.TileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTypes(f)
}

// Load читает шаблон из файла и строит карту
func Load(path string) (*domain.Grid, error) {
	types, err := LoadTypes(path)
	if err != nil {
		return nil, err
	}
	return domain.NewGrid(types)
}

// Fixture-карты, на которых проверяются анализатор и сценарии
var (
	// Corridor - один коридор шириной в клетку между всеми спавнами и доставками
	Corridor = []string{
		"S.....D",
	}

	// Bottleneck - две площадки, соединенные коридором (3,1)-(5,1)
	Bottleneck = []string{
		"SS.###DD",
		"SS....DD",
		"SS.###DD",
	}

	// TwoCorridors - два независимых маршрута вокруг стены
	TwoCorridors = []string{
		"SS....DD",
		"SS.##.DD",
		"SS....DD",
	}

	// Open - открытая площадка без узких мест
	Open = []string{
		"S.....S",
		".......",
		".......",
		"D.....D",
	}
)
