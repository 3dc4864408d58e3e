package board

import (
	"fmt"
	"time"

	"waitboard/internal/models"
	"waitboard/internal/view"
)

// Frame is one fully rendered table: the sorted row set, the trailing spacer,
// and the viewport facts a thin client needs to draw it. Row identity is not
// preserved across frames; every frame is a complete rebuild.
type Frame struct {
	Rows            []Row `json:"rows"`
	SpacerHeight    int   `json:"spacer_height"`
	ScrollHeight    int   `json:"scroll_height"`
	ScrollOffset    int   `json:"scroll_offset"`
	VisibleHeight   int   `json:"visible_height"`
	CompletedHeight int   `json:"completed_height"`

	ScrollToActiveEnabled bool   `json:"scroll_to_active_enabled"`
	Mode                  Mode   `json:"mode"`
	Toast                 string `json:"toast,omitempty"`
	HighlightID           int64  `json:"highlight_id,omitempty"`

	RenderedAt time.Time `json:"rendered_at"`
}

// MaxScroll is the largest valid scroll offset for the frame.
func (f Frame) MaxScroll() int {
	max := f.ScrollHeight - f.VisibleHeight
	if max < 0 {
		return 0
	}
	return max
}

type Row struct {
	EntryID       int64    `json:"entry_id"`
	DisplayNumber string   `json:"display_number"`
	CustomerName  string   `json:"customer_name"`
	PartySize     int      `json:"party_size"`
	Status        string   `json:"status"`
	TimeLabel     string   `json:"time_label"`
	Badges        []string `json:"badges,omitempty"`
	NewMessage    bool     `json:"new_message,omitempty"`

	Height   int  `json:"height"`
	Selected bool `json:"selected,omitempty"`
	Expanded bool `json:"expanded,omitempty"`

	Buttons   []Button `json:"buttons"`
	ChatLines []string `json:"chat_lines,omitempty"`

	AskMode       bool `json:"ask_mode,omitempty"`
	QuestionPage  int  `json:"question_page,omitempty"`
	QuestionPages int  `json:"question_pages,omitempty"`
}

type Button struct {
	Action     string `json:"action"`
	Label      string `json:"label"`
	QuestionID int64  `json:"question_id,omitempty"`
	Disabled   bool   `json:"disabled,omitempty"`
	MobileOnly bool   `json:"mobile_only,omitempty"`
}

const (
	ActionReady    = "ready"
	ActionAsk      = "ask"
	ActionArrive   = "arrive"
	ActionCancel   = "cancel"
	ActionUndo     = "undo"
	ActionCall     = "call"
	ActionQuestion = "question"
	ActionNext     = "next"
	ActionExit     = "exit"
)

func (b *Board) renderRow(e models.WaitlistEntry, now time.Time) Row {
	chats := b.chats[e.ID]
	selected := b.mode == ModeDesktop && b.ui.selectedID == e.ID
	expanded := b.mode == ModeMobile && b.ui.expandedID == e.ID

	row := Row{
		EntryID:       e.ID,
		DisplayNumber: e.DisplayNumber,
		CustomerName:  e.CustomerName,
		PartySize:     e.PartySize,
		Status:        e.Status,
		TimeLabel:     view.TimeLabel(e, now),
		Badges:        e.Badges,
		Selected:      selected,
		Expanded:      expanded,
	}

	if selected || expanded {
		for _, c := range chats {
			row.ChatLines = append(row.ChatLines, c.Text)
		}
	} else if len(chats) > 0 {
		last := chats[len(chats)-1]
		row.ChatLines = []string{last.Text}
		row.NewMessage = b.badgePending(e.ID, last.Text)
	}

	row.Height = b.rowHeight(row)

	if b.ui.askMode[e.ID] && e.Active() {
		b.renderAskButtons(&row, e)
	} else {
		b.renderActionButtons(&row, e)
	}
	return row
}

func (b *Board) rowHeight(row Row) int {
	if row.Expanded {
		return b.opts.ExpandedRowHeight
	}
	if row.Selected {
		return b.opts.RowHeight + len(row.ChatLines)*b.opts.ChatLineHeight
	}
	return b.opts.RowHeight
}

func (b *Board) renderActionButtons(row *Row, e models.WaitlistEntry) {
	if e.Completed() {
		label := "Undo"
		if cd, ok := b.ui.countdowns[e.ID]; ok {
			label = fmt.Sprintf("Undo (%d)", cd.remaining)
		}
		row.Buttons = []Button{{Action: ActionUndo, Label: label}}
		return
	}

	webSuppressed := b.opts.SuppressWebMessaging && e.Origin == models.OriginWeb
	eligible := b.eligibleFor(e)

	row.Buttons = []Button{
		{Action: ActionCall, Label: "Call", MobileOnly: true, Disabled: e.Phone == ""},
		{Action: ActionReady, Label: "Ready", Disabled: webSuppressed || e.QuestionLevel >= models.ReadyQuestionLevel},
		{Action: ActionAsk, Label: "Ask", Disabled: webSuppressed || len(eligible) == 0},
		{Action: ActionArrive, Label: "Arrive"},
		{Action: ActionCancel, Label: "Cancel"},
	}
}

func (b *Board) renderAskButtons(row *Row, e models.WaitlistEntry) {
	eligible := b.eligibleFor(e)
	perPage := b.opts.QuestionsPerPage

	pages := (len(eligible) + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	page := b.ui.questionPage[e.ID] % pages

	start := page * perPage
	end := start + perPage
	if end > len(eligible) {
		end = len(eligible)
	}

	row.AskMode = true
	row.QuestionPage = page
	row.QuestionPages = pages

	for _, q := range eligible[start:end] {
		row.Buttons = append(row.Buttons, Button{
			Action:     ActionQuestion,
			Label:      models.StripChatPrefix(q.QuestionText),
			QuestionID: q.ID,
		})
	}
	if pages > 1 {
		row.Buttons = append(row.Buttons, Button{Action: ActionNext, Label: "Next/Exit"})
	} else {
		row.Buttons = append(row.Buttons, Button{Action: ActionExit, Label: "Exit"})
	}
}

func (b *Board) eligibleFor(e models.WaitlistEntry) []models.QuestionDefinition {
	return view.EligibleQuestions(e, b.chats[e.ID], b.questions)
}

// badgePending reports whether the latest chat line for a booking should show
// the "new message" indicator, consulting the day-scoped dismissal store.
func (b *Board) badgePending(bookingID int64, label string) bool {
	if b.badges == nil {
		return true
	}
	hidden, err := b.badges.Hidden(b.opts.Day, bookingID, label)
	if err != nil {
		return true
	}
	return !hidden
}
