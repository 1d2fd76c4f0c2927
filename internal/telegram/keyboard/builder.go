package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sellershield/intake-backend/internal/entity"
)

// options longer than this get a row of their own
const shortOptionLen = 12

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// StartKeyboard creates the initial start button
func (b *Builder) StartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛡 Start assessment", EncodeCallback(ActionControl, ControlStart)),
		),
	)
}

// QuestionKeyboard builds the buttons for the current question of a session view.
// Choice questions get one button per option, the recorded answer marked with ✅.
// Typed questions only get navigation.
func (b *Builder) QuestionKeyboard(view *entity.SessionView) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton

	q := view.CurrentQuestion
	if q != nil && q.Type.IsChoice() {
		selected := view.Answers[q.ID].Value
		rows = append(rows, optionRows(q.ID, q.Options, selected)...)
	}

	var nav []tgbotapi.InlineKeyboardButton
	if view.CanRetreat {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Back", EncodeCallback(ActionNav, NavBack)))
	}
	if q != nil && !q.Type.IsChoice() && view.CanAdvance {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", EncodeCallback(ActionNav, NavNext)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}, true
}

// AnswerValue encodes an option pick as "<question id>:<option index>" so that
// buttons of an older message still answer the question they were shown for
func AnswerValue(questionID string, index int) string {
	return questionID + ":" + strconv.Itoa(index)
}

// ParseAnswerValue decodes AnswerValue
func ParseAnswerValue(value string) (questionID string, index int, err error) {
	questionID, idx, ok := strings.Cut(value, ":")
	if !ok || questionID == "" {
		return "", 0, fmt.Errorf("invalid answer value: %s", value)
	}
	index, err = strconv.Atoi(idx)
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("invalid answer index: %s", value)
	}
	return questionID, index, nil
}

func optionRows(questionID string, options []string, selected string) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	var pending []tgbotapi.InlineKeyboardButton

	for i, opt := range options {
		label := opt
		if opt == selected {
			label = "✅ " + opt
		}
		btn := tgbotapi.NewInlineKeyboardButtonData(label, EncodeCallback(ActionAnswer, AnswerValue(questionID, i)))

		if len(opt) > shortOptionLen {
			if len(pending) > 0 {
				rows = append(rows, pending)
				pending = nil
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
			continue
		}

		pending = append(pending, btn)
		if len(pending) == 2 {
			rows = append(rows, pending)
			pending = nil
		}
	}
	if len(pending) > 0 {
		rows = append(rows, pending)
	}

	return rows
}

// ResultKeyboard creates result download and restart buttons
func (b *Builder) ResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📕 Download .pdf", EncodeCallback(ActionDownload, string(entity.FormatPDF))),
			tgbotapi.NewInlineKeyboardButtonData("📄 Download .md", EncodeCallback(ActionDownload, string(entity.FormatMarkdown))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Download .docx", EncodeCallback(ActionDownload, string(entity.FormatDOCX))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", EncodeCallback(ActionControl, ControlRestart)),
		),
	)
}

// NotEligibleKeyboard offers only a restart
func (b *Builder) NotEligibleKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", EncodeCallback(ActionControl, ControlRestart)),
		),
	)
}

// ConfirmCancelKeyboard asks before dropping the session
func (b *Builder) ConfirmCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, cancel", EncodeCallback(ActionConfirm, ConfirmCancel)),
			tgbotapi.NewInlineKeyboardButtonData("❌ No, continue", EncodeCallback(ActionConfirm, ConfirmContinue)),
		),
	)
}
