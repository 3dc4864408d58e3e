package models

import (
	"strings"
	"time"
)

// ChatEntry is one line of interaction history for a booking. Text may carry
// a prefix marking its kind: "Q:" question, "A:" answer, "i:" informational.
type ChatEntry struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_list_id"`
	Timestamp     time.Time `json:"timestamp"`
	Text          string    `json:"text"`
	QuestionRefID int64     `json:"question_ref_id,omitempty"`
}

const (
	PrefixQuestion = "Q:"
	PrefixAnswer   = "A:"
	PrefixInfo     = "i:"
)

func (c ChatEntry) IsQuestion() bool {
	return strings.HasPrefix(c.Text, PrefixQuestion)
}

func (c ChatEntry) IsAnswer() bool {
	return strings.HasPrefix(c.Text, PrefixAnswer)
}

// BareText strips the kind prefix, if any.
func (c ChatEntry) BareText() string {
	return StripChatPrefix(c.Text)
}

func StripChatPrefix(text string) string {
	for _, prefix := range []string{PrefixQuestion, PrefixAnswer, PrefixInfo} {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return strings.TrimSpace(text)
}
