package domain

import (
	"strconv"
	"time"
)

// AgentSnapshot - то, что мы знаем об агенте (о себе или о другом).
// Позиция - последняя увиденная, может быть устаревшей.
type AgentSnapshot struct {
	ID      string    `json:"id"`
	Name    string    `json:"name,omitempty"`
	Pos     Position  `json:"pos"`
	Carried int       `json:"carried"`
	Score   int       `json:"score"`
	SeenAt  time.Time `json:"seenAt"`

	// Reported - агент известен со слов партнера, а не из собственного восприятия
	Reported bool `json:"reported,omitempty"`
}

// Item - посылка на карте или в руках у агента
type Item struct {
	ID        string    `json:"id"`
	Pos       Position  `json:"pos"`
	Reward    float64   `json:"reward"`
	CarriedBy string    `json:"carriedBy,omitempty"`
	SeenAt    time.Time `json:"seenAt"`
}

// IsFree возвращает true, если посылку никто не несет
func (i Item) IsFree() bool {
	return i.CarriedBy == ""
}

// CompareAgentIDs задает порядок агентов для всех тай-брейков протокола.
// Числовые ID сравниваются как числа, остальные - как строки.
// Обе стороны обязаны получить одинаковый результат.
func CompareAgentIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
