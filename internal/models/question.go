package models

import (
	"strconv"
	"strings"
)

// Trigger buttons a question can be attached to.
const (
	TriggerAsk   = "ask"
	TriggerReady = "ready"
)

// QuestionDefinition is one entry of the static per-venue follow-up
// catalogue.
type QuestionDefinition struct {
	ID            int64  `json:"id"`
	QuestionText  string `json:"question_text"`
	MinPartySize  int    `json:"min_party_size"`
	MaxPartySize  int    `json:"max_party_size"` // 0 means unbounded
	RequiredLevel int    `json:"required_question_level"`
	MinLevelGate  int    `json:"min_question_level_gate"`
	TriggerButton string `json:"trigger_button"`
	AnswerIDsCsv  string `json:"answer_ids_csv"`
	// QuestionLevel is the level the entry is raised to when this question
	// is sent. The "table ready" class of questions carries 300.
	QuestionLevel int `json:"question_level"`
}

// AnswerIDs parses the comma-separated answer id list. Malformed fields are
// skipped rather than failing the whole catalogue.
func (q QuestionDefinition) AnswerIDs() []int64 {
	if q.AnswerIDsCsv == "" {
		return nil
	}
	parts := strings.Split(q.AnswerIDsCsv, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// MatchesParty reports whether the entry's party size falls in the
// question's [min, max] window.
func (q QuestionDefinition) MatchesParty(partySize int) bool {
	if partySize < q.MinPartySize {
		return false
	}
	if q.MaxPartySize > 0 && partySize > q.MaxPartySize {
		return false
	}
	return true
}

// AnswerDefinition is one selectable answer. Answering may raise the entry's
// question level; Badge, when set, contributes to the entry's badge slots.
type AnswerDefinition struct {
	ID            int64  `json:"id"`
	Text          string `json:"text"`
	Badge         string `json:"badge,omitempty"`
	QuestionLevel int    `json:"question_level"`
}
