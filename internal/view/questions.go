package view

import (
	"strings"

	"waitboard/internal/models"
)

// EligibleQuestions filters the catalogue down to the follow-up questions
// that may still be offered for the entry:
//   - triggered by the Ask button,
//   - party size inside the question's window,
//   - the entry's question level has not passed the question's required level
//     and clears its minimum gate,
//   - not already asked (text compared prefix-insensitively against the chat
//     history),
//   - and, while the most recent chat line is an unanswered question, no
//     further question-kind entries are offered until it is answered.
//
// Returned order matches catalogue order.
func EligibleQuestions(e models.WaitlistEntry, chats []models.ChatEntry, catalogue []models.QuestionDefinition) []models.QuestionDefinition {
	pending := pendingQuestion(chats)

	var eligible []models.QuestionDefinition
	for _, q := range catalogue {
		if q.TriggerButton != models.TriggerAsk {
			continue
		}
		if !q.MatchesParty(e.PartySize) {
			continue
		}
		if e.QuestionLevel > q.RequiredLevel {
			continue
		}
		if q.MinLevelGate > 0 && e.QuestionLevel < q.MinLevelGate {
			continue
		}
		if alreadyAsked(q, chats) {
			continue
		}
		if pending && strings.HasPrefix(q.QuestionText, models.PrefixQuestion) {
			continue
		}
		eligible = append(eligible, q)
	}
	return eligible
}

// pendingQuestion reports whether the most recent chat line is a question
// still awaiting an answer.
func pendingQuestion(chats []models.ChatEntry) bool {
	if len(chats) == 0 {
		return false
	}
	return chats[len(chats)-1].IsQuestion()
}

func alreadyAsked(q models.QuestionDefinition, chats []models.ChatEntry) bool {
	want := models.StripChatPrefix(q.QuestionText)
	for _, c := range chats {
		if c.BareText() == want {
			return true
		}
	}
	return false
}
