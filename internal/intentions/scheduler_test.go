package intentions

import (
	"context"
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/plans"
	"deliveroo-agent/pkg/logger"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakePlan struct {
	name     string
	eligible bool
	abort    bool
	done     bool
	action   domain.Action
	stops    int
	resets   int
	feedback []bool
}

func (f *fakePlan) Name() string                                { return f.name }
func (f *fakePlan) Eligible(*plans.Context) bool                { return f.eligible }
func (f *fakePlan) Failures() int                               { return 0 }
func (f *fakePlan) ShouldAbort() bool                           { return f.abort }
func (f *fakePlan) ResetFailures()                              { f.resets++ }
func (f *fakePlan) Stop()                                       { f.stops++ }
func (f *fakePlan) Done() bool                                  { return f.done }
func (f *fakePlan) Action(*plans.Context) (domain.Action, bool) { return f.action, true }

func (f *fakePlan) Feedback(_ *plans.Context, _ domain.Action, ok bool) {
	f.feedback = append(f.feedback, ok)
}

func ctxFor(carrying bool) *plans.Context {
	snap := &beliefs.Snapshot{Self: domain.AgentSnapshot{ID: "me"}}
	if carrying {
		snap.Items = []domain.Item{{ID: "c1", CarriedBy: "me", Reward: 5}}
	}
	return plans.NewContext(context.Background(), snap, nil, nil, nil, plans.Settings{})
}

func TestPriorities(t *testing.T) {
	order := []Goal{GoalHandover, GoalDeliberate, GoalDeliver, GoalPickup, GoalExplore}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, Priority(order[i-1]), Priority(order[i]), "%s must outrank %s", order[i-1], order[i])
	}
}

func TestSelectHighestEligible(t *testing.T) {
	s := NewScheduler("me")
	explore := &fakePlan{name: "explore", eligible: true}
	pickup := &fakePlan{name: "pickup", eligible: true}
	s.Register(GoalExplore, explore)
	s.Register(GoalPickup, pickup)

	cur := s.Select(ctxFor(false))
	require.NotNil(t, cur)
	assert.Equal(t, GoalPickup, cur.Goal)
}

func TestPreemptionRequiresHigherPriority(t *testing.T) {
	s := NewScheduler("me")
	explore := &fakePlan{name: "explore", eligible: true}
	pickup := &fakePlan{name: "pickup"}
	s.Register(GoalExplore, explore)
	s.Register(GoalPickup, pickup)

	require.Equal(t, GoalExplore, s.Select(ctxFor(false)).Goal)
	first := s.Current()

	// Тот же приоритет не вытесняет
	assert.Same(t, first, s.Select(ctxFor(false)))

	pickup.eligible = true
	cur := s.Select(ctxFor(false))
	assert.Equal(t, GoalPickup, cur.Goal)
	assert.True(t, first.Stopped())
	assert.Equal(t, 1, explore.stops, "preempted plan must drop its path")
}

func TestPickupCompletesWhenCarrying(t *testing.T) {
	s := NewScheduler("me")
	pickup := &fakePlan{name: "pickup", eligible: true}
	deliver := &fakePlan{name: "deliver"}
	s.Register(GoalPickup, pickup)
	s.Register(GoalDeliver, deliver)

	first := s.Select(ctxFor(false))
	require.Equal(t, GoalPickup, first.Goal)

	pickup.eligible = false
	deliver.eligible = true
	cur := s.Select(ctxFor(true))
	assert.True(t, first.Completed())
	assert.Equal(t, GoalDeliver, cur.Goal)

	deliver.eligible = false
	assert.Nil(t, s.Select(ctxFor(false)))
	assert.Equal(t, 1, deliver.stops)
}

func TestAbortedIntentionIsReplaced(t *testing.T) {
	s := NewScheduler("me")
	explore := &fakePlan{name: "explore", eligible: true}
	s.Register(GoalExplore, explore)

	first := s.Select(ctxFor(false))
	explore.abort = true
	require.NotNil(t, s.Select(ctxFor(false)))
	assert.True(t, first.Stopped())
	assert.Equal(t, 1, explore.resets)
	assert.NotSame(t, first, s.Current())
}

func TestDeliberateCompletesWhenDone(t *testing.T) {
	s := NewScheduler("me")
	plan := &fakePlan{name: "deliberate", eligible: true}
	s.Register(GoalDeliberate, plan)

	first := s.Select(ctxFor(false))
	plan.done = true
	s.Select(ctxFor(false))
	assert.True(t, first.Completed())
}

func TestNextAndFeedback(t *testing.T) {
	s := NewScheduler("me")
	plan := &fakePlan{name: "explore", eligible: true, action: domain.PutdownAction()}
	s.Register(GoalExplore, plan)

	c := ctxFor(false)
	a, ok := s.Next(c)
	require.True(t, ok)
	assert.Equal(t, domain.ActionPutdown, a.Type)

	s.Feedback(c, a, false)
	assert.Equal(t, []bool{false}, plan.feedback)

	s.StopCurrent("test")
	assert.Nil(t, s.Current())
	assert.Equal(t, 1, plan.resets)
}
