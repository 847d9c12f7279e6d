package intentions

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/plans"
	"deliveroo-agent/pkg/logger"
	"sort"

	"github.com/sirupsen/logrus"
)

type candidate struct {
	goal Goal
	plan plans.Plan
}

// Scheduler держит не больше одного текущего намерения.
// Кандидат вытесняет текущее только при строго большем приоритете.
type Scheduler struct {
	candidates []candidate
	current    *Intention
	log        *logrus.Entry
}

func NewScheduler(agentID string) *Scheduler {
	return &Scheduler{log: logger.For("intentions", agentID)}
}

// Register добавляет план-кандидат для цели
func (s *Scheduler) Register(goal Goal, plan plans.Plan) {
	s.candidates = append(s.candidates, candidate{goal: goal, plan: plan})
	sort.SliceStable(s.candidates, func(i, j int) bool {
		return Priority(s.candidates[i].goal) > Priority(s.candidates[j].goal)
	})
}

func (s *Scheduler) Current() *Intention { return s.current }

// Select обновляет текущее намерение для этого тика
func (s *Scheduler) Select(c *plans.Context) *Intention {
	if cur := s.current; cur != nil {
		switch {
		case cur.reached(c):
			s.log.WithField("goal", cur.Goal).Debug("intention completed")
			cur.complete()
			s.current = nil
		case cur.Plan.ShouldAbort():
			s.log.WithFields(logrus.Fields{
				"goal":     cur.Goal,
				"failures": cur.Plan.Failures(),
			}).Info("intention aborted")
			s.drop()
		case !cur.Plan.Eligible(c):
			s.drop()
		}
	}

	for _, cand := range s.candidates {
		prio := Priority(cand.goal)
		if s.current != nil && prio <= s.current.Priority {
			break
		}
		if !cand.plan.Eligible(c) {
			continue
		}
		if s.current != nil {
			s.log.WithFields(logrus.Fields{
				"from": s.current.Goal,
				"to":   cand.goal,
			}).Debug("intention preempted")
			s.current.Stop()
		}
		s.current = newIntention(cand.goal, cand.plan)
		break
	}
	return s.current
}

// Next выбирает намерение и спрашивает у его плана действие.
// false - в этом тике агент ждет.
func (s *Scheduler) Next(c *plans.Context) (domain.Action, bool) {
	cur := s.Select(c)
	if cur == nil {
		return domain.Action{}, false
	}
	return cur.Plan.Action(c)
}

// Feedback передает результат действия плану текущего намерения
func (s *Scheduler) Feedback(c *plans.Context, a domain.Action, ok bool) {
	if s.current == nil {
		return
	}
	s.current.Plan.Feedback(c, a, ok)
}

// StopCurrent принудительно снимает текущее намерение
func (s *Scheduler) StopCurrent(reason string) {
	if s.current == nil {
		return
	}
	s.log.WithFields(logrus.Fields{
		"goal":   s.current.Goal,
		"reason": reason,
	}).Info("intention stopped")
	s.drop()
}

// drop останавливает намерение и обнуляет ошибки его плана,
// чтобы план мог снова стать кандидатом
func (s *Scheduler) drop() {
	s.current.Stop()
	s.current.Plan.ResetFailures()
	s.current = nil
}

// Reset снимает намерение без логирования
func (s *Scheduler) Reset() {
	if s.current != nil {
		s.drop()
	}
}
