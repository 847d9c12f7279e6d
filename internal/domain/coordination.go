package domain

import "strings"

// Mode - стратегия кооперации двух агентов
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeHandover
)

func (m Mode) String() string {
	if m == ModeHandover {
		return "HANDOVER"
	}
	return "NORMAL"
}

// Role - роль агента в режиме передачи
type Role uint8

const (
	RoleNone Role = iota
	RoleCollector
	RoleCourier
)

var roleStringToRole = map[string]Role{
	"COLLECTOR": RoleCollector,
	"COURIER":   RoleCourier,
}

var roleToString = map[Role]string{
	RoleCollector: "COLLECTOR",
	RoleCourier:   "COURIER",
}

func ParseRole(s string) Role {
	if val, ok := roleStringToRole[strings.ToUpper(s)]; ok {
		return val
	}
	return RoleNone
}

func (r Role) String() string {
	if val, ok := roleToString[r]; ok {
		return val
	}
	return "NONE"
}

// Opposite возвращает комплементарную роль
func (r Role) Opposite() Role {
	switch r {
	case RoleCollector:
		return RoleCourier
	case RoleCourier:
		return RoleCollector
	}
	return RoleNone
}

// HandoverReason - информационная метка результата анализа узких мест
type HandoverReason string

const (
	ReasonSinglePath HandoverReason = "single_path"
	ReasonBottleneck HandoverReason = "bottleneck"
)

// HandoverConfig - результат анализа карты для режима передачи.
// Tile имеет >= 2 проходимых соседа и достижима от обеих представительных точек.
type HandoverConfig struct {
	Spawn    Position       `json:"spawn"`
	Delivery Position       `json:"delivery"`
	Tile     Position       `json:"tile"`
	Reason   HandoverReason `json:"reason"`

	// Клетки ожидания рядом с Tile: со стороны спавна (Collector) и доставки (Courier)
	CollectorStage Position `json:"collectorStage"`
	CourierStage   Position `json:"courierStage"`
}
