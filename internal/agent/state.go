package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TurnState tracks one conversational turn across its rounds.
type TurnState struct {
	// Round is the 1-based round counter.
	Round int
	// Edited is set once any round of the turn performs an edit.
	Edited bool
	// SearchStreak counts consecutive rounds that only searched or read.
	SearchStreak int

	mu   sync.Mutex
	sigs map[string]int
}

// NewTurnState creates the state for a fresh turn.
func NewTurnState() *TurnState {
	return &TurnState{sigs: make(map[string]int)}
}

// Reserve claims a signature for execution. It returns false if the
// signature already executed this turn, in which case the call must be
// short-circuited instead of run.
func (s *TurnState) Reserve(sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sigs[sig] > 0 {
		s.sigs[sig]++
		return false
	}
	s.sigs[sig] = 1
	return true
}

// Release returns a reserved signature after a failed execution so the
// model may retry the same call.
func (s *TurnState) Release(sig string) {
	s.mu.Lock()
	delete(s.sigs, sig)
	s.mu.Unlock()
}

// Seen reports how many times a signature has been requested this turn.
func (s *TurnState) Seen(sig string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sigs[sig]
}

// Signature derives the duplicate-detection key for a tool call: the tool
// name plus every argument value normalized and joined in key order. Two
// calls whose arguments differ only in case, whitespace, or quoting
// produce the same signature.
func Signature(name string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.ToLower(name))
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(strings.ToLower(k))
		b.WriteByte('=')
		b.WriteString(normalizeValue(args[k]))
	}
	return b.String()
}

func normalizeValue(v any) string {
	s := strings.ToLower(fmt.Sprint(v))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '"', '\'', '`':
			return -1
		}
		return r
	}, s)
}
