// Package intentions выбирает текущее намерение агента и его план.
package intentions

import (
	"deliveroo-agent/internal/plans"
)

// Goal - метка цели намерения
type Goal string

const (
	GoalHandover   Goal = "handover"
	GoalDeliberate Goal = "deliberate"
	GoalDeliver    Goal = "deliver"
	GoalPickup     Goal = "pickup"
	GoalExplore    Goal = "explore"
)

// Фиксированные приоритеты: больше - важнее
var goalPriority = map[Goal]int{
	GoalHandover:   50,
	GoalDeliberate: 40,
	GoalDeliver:    30,
	GoalPickup:     20,
	GoalExplore:    10,
}

func Priority(g Goal) int { return goalPriority[g] }

// Intention - одна преследуемая цель
type Intention struct {
	Goal     Goal
	Plan     plans.Plan
	Priority int

	completed bool
	stopped   bool
}

func newIntention(goal Goal, plan plans.Plan) *Intention {
	return &Intention{Goal: goal, Plan: plan, Priority: Priority(goal)}
}

func (i *Intention) Completed() bool { return i.completed }
func (i *Intention) Stopped() bool   { return i.stopped }

// Active - не завершено и не остановлено
func (i *Intention) Active() bool { return !i.completed && !i.stopped }

// reached - полнота зависит от цели. Передача и обход сами не завершаются.
func (i *Intention) reached(c *plans.Context) bool {
	switch i.Goal {
	case GoalPickup:
		return c.Snap.IsCarrying()
	case GoalDeliver:
		return !c.Snap.IsCarrying()
	case GoalDeliberate:
		if d, ok := i.Plan.(interface{ Done() bool }); ok {
			return d.Done()
		}
	}
	return false
}

// Stop останавливает намерение и сбрасывает путь плана
func (i *Intention) Stop() {
	if i.stopped {
		return
	}
	i.stopped = true
	i.Plan.Stop()
}

func (i *Intention) complete() {
	i.completed = true
	i.Plan.Stop()
}
