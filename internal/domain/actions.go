package domain

import "strings"

// ActionType - Внутренний числовой идентификатор действия
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	ActionMove
	ActionPickup
	ActionPutdown
	ActionWait
)

// Маппинг для конвертации JSON -> Domain
var actionStringToCmd = map[string]ActionType{
	"MOVE":    ActionMove,
	"PICKUP":  ActionPickup,
	"PUTDOWN": ActionPutdown,
	"WAIT":    ActionWait,
}

// Маппинг для логов Domain -> String
var actionCmdToString = map[ActionType]string{
	ActionMove:    "MOVE",
	ActionPickup:  "PICKUP",
	ActionPutdown: "PUTDOWN",
	ActionWait:    "WAIT",
}

// ParseAction конвертирует строку из JSON в ActionType
func ParseAction(s string) ActionType {
	// Делаем нечувствительным к регистру для надежности
	upper := strings.ToUpper(s)
	if val, ok := actionStringToCmd[upper]; ok {
		return val
	}
	return ActionUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (a ActionType) String() string {
	if val, ok := actionCmdToString[a]; ok {
		return val
	}
	return "UNKNOWN"
}

// Action - одно действие агента за тик.
// Target заполняется для MOVE (клетка, в которую идем) и PICKUP (клетка предмета).
type Action struct {
	Type      ActionType `json:"type"`
	Direction Direction  `json:"direction,omitempty"`
	Target    *Position  `json:"target,omitempty"`
	ItemID    string     `json:"itemId,omitempty"`
}

func MoveAction(from Position, d Direction) Action {
	to := from.Step(d)
	return Action{Type: ActionMove, Direction: d, Target: &to}
}

func PickupAction(itemID string, at Position) Action {
	return Action{Type: ActionPickup, ItemID: itemID, Target: &at}
}

func PutdownAction() Action {
	return Action{Type: ActionPutdown}
}

func (a Action) String() string {
	switch a.Type {
	case ActionMove:
		return a.Type.String() + " " + a.Direction.String()
	case ActionPickup:
		if a.ItemID != "" {
			return a.Type.String() + " " + a.ItemID
		}
	}
	return a.Type.String()
}
