package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		data    string
		token   string
		payload string
	}{
		{"\funsub|gold", "unsub", "gold"},
		{"\fmain_menu", "main_menu", ""},
		{"\\finstrument|bitcoin", "instrument", "bitcoin"},
		{"reset", "reset", ""},
		{"\fsub|", "sub", ""},
	}
	for _, tc := range cases {
		token, payload := Parse(&tele.Callback{Data: tc.data})
		if token != tc.token || payload != tc.payload {
			t.Fatalf("Parse(%q) = (%q, %q), want (%q, %q)", tc.data, token, payload, tc.token, tc.payload)
		}
	}
}

func TestParseNilCallback(t *testing.T) {
	token, payload := Parse(nil)
	if token != "" || payload != "" {
		t.Fatalf("Parse(nil) = (%q, %q), want empty", token, payload)
	}
}
