package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitchat/internal/config"
)

func testLoopConfig() config.LoopConfig {
	return config.LoopConfig{
		MaxRounds:          10,
		PlanNudgeRound:     3,
		EditNudgeRound:     5,
		SearchStreakLimit:  7,
		FinalWarningMargin: 2,
		EscalationRound:    6,
	}
}

func TestAdvise(t *testing.T) {
	cfg := testLoopConfig()

	t.Run("quiet in early rounds", func(t *testing.T) {
		_, ok := Advise(&TurnState{Round: 1}, cfg)
		assert.False(t, ok)
		_, ok = Advise(&TurnState{Round: 2}, cfg)
		assert.False(t, ok)
	})

	t.Run("plan nudge at the plan round", func(t *testing.T) {
		msg, ok := Advise(&TurnState{Round: 3}, cfg)
		assert.True(t, ok)
		assert.Contains(t, msg, "plan")
	})

	t.Run("no plan nudge once an edit happened", func(t *testing.T) {
		_, ok := Advise(&TurnState{Round: 3, Edited: true}, cfg)
		assert.False(t, ok)
	})

	t.Run("stop-searching nudge at the edit round", func(t *testing.T) {
		msg, ok := Advise(&TurnState{Round: 5, SearchStreak: 4}, cfg)
		assert.True(t, ok)
		assert.Contains(t, msg, "Stop searching")
	})

	t.Run("hard block past the streak limit", func(t *testing.T) {
		state := &TurnState{Round: 7, SearchStreak: 7}
		msg, ok := Advise(state, cfg)
		assert.True(t, ok)
		assert.Contains(t, msg, "Search blocked")
		assert.True(t, ReadsBlocked(state, cfg))
	})

	t.Run("an edit lifts the hard block", func(t *testing.T) {
		state := &TurnState{Round: 7, SearchStreak: 7, Edited: true}
		_, ok := Advise(state, cfg)
		assert.False(t, ok)
		assert.False(t, ReadsBlocked(state, cfg))
	})

	t.Run("final warning near the ceiling wins over everything", func(t *testing.T) {
		msg, ok := Advise(&TurnState{Round: 8, SearchStreak: 7}, config.LoopConfig{
			MaxRounds:          9,
			SearchStreakLimit:  7,
			FinalWarningMargin: 2,
		})
		assert.True(t, ok)
		assert.Contains(t, msg, "Finish up")
	})
}
