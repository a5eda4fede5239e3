package keyboard

import "testing"

func TestInlineOneButtonPerRow(t *testing.T) {
	markup := Inline(
		InlineBtn{Text: "A", Unique: "a"},
		InlineBtn{Text: "B", Unique: "b"},
	)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	for i, row := range markup.InlineKeyboard {
		if len(row) != 1 {
			t.Fatalf("row %d width = %d, want 1", i, len(row))
		}
	}
}

func TestInlineNPerRowSplitsUnevenTail(t *testing.T) {
	btns := []InlineBtn{
		{Text: "A", Unique: "a"},
		{Text: "B", Unique: "b"},
		{Text: "C", Unique: "c"},
	}
	markup := InlineNPerRow(btns, 2)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	if len(markup.InlineKeyboard[0]) != 2 || len(markup.InlineKeyboard[1]) != 1 {
		t.Fatalf("row widths = %d,%d, want 2,1",
			len(markup.InlineKeyboard[0]), len(markup.InlineKeyboard[1]))
	}
	if markup.InlineKeyboard[1][0].Unique != "c" {
		t.Fatalf("tail button unique = %q, want c", markup.InlineKeyboard[1][0].Unique)
	}
}

func TestInlineNPerRowDegenerateWidth(t *testing.T) {
	btns := []InlineBtn{{Text: "A", Unique: "a"}, {Text: "B", Unique: "b"}}
	markup := InlineNPerRow(btns, 0)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want one button per row", len(markup.InlineKeyboard))
	}
}
