// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Inline builds an inline keyboard where each provided button is placed on its own row.
func Inline(buttons ...InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineRows(rows...)
}

// InlineRows builds an inline keyboard from rows of InlineBtn.
func InlineRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineNPerRow splits a flat list of buttons into rows with up to n buttons per row.
// If n <= 1, it behaves like Inline (one per row).
func InlineNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n <= 1 {
		return Inline(buttons...)
	}
	var rows [][]InlineBtn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return InlineRows(rows...)
}
