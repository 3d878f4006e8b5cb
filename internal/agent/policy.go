package agent

import (
	"fmt"

	"gitchat/internal/config"
)

// DuplicateBlockMessage is returned in place of a tool result when the
// same signature is requested again within one turn.
const DuplicateBlockMessage = "Duplicate call blocked: this exact tool call already ran this turn. Use its earlier result, or change the arguments if you need something different."

// hardBlockMessage refuses read-only calls once the search streak limit
// is hit without a single edit.
const hardBlockMessage = "Search blocked: too many consecutive search rounds without an edit. Make an edit with what you have found, or tell the user what is missing."

const (
	planNudge    = "You have been exploring for a few rounds. State your plan in one or two sentences before the next tool call."
	searchNudge  = "Stop searching. You have enough context: attempt an edit now, or explain to the user why you cannot."
	finalWarning = "Only %d tool round(s) remain for this turn. Finish up: make your final edit or give your answer."
)

// Advise is the escalating nudge policy. It is evaluated once per round
// and returns guidance to append to the round's first tool result. Pure:
// it never mutates state.
func Advise(state *TurnState, cfg config.LoopConfig) (string, bool) {
	remaining := cfg.MaxRounds - state.Round
	switch {
	case remaining <= cfg.FinalWarningMargin:
		return fmt.Sprintf(finalWarning, remaining), true
	case state.SearchStreak >= cfg.SearchStreakLimit && !state.Edited:
		return hardBlockMessage, true
	case state.Round == cfg.EditNudgeRound && !state.Edited:
		return searchNudge, true
	case state.Round == cfg.PlanNudgeRound && !state.Edited:
		return planNudge, true
	}
	return "", false
}

// ReadsBlocked reports whether read-only tool calls must be refused this
// round: the streak limit was hit and the turn still has no edit.
func ReadsBlocked(state *TurnState, cfg config.LoopConfig) bool {
	return state.SearchStreak >= cfg.SearchStreakLimit && !state.Edited
}
