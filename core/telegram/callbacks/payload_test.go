package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{name: "nil callback", cb: nil},
		{name: "data only", cb: &tele.Callback{Data: "\\floc|france"}, key: "loc", payload: "france"},
		{name: "no payload", cb: &tele.Callback{Data: "\\fbuy"}, key: "buy"},
		{name: "unique wins", cb: &tele.Callback{Unique: "vol", Data: "\\fstale|80"}, key: "vol", payload: "80"},
		{name: "unique without data", cb: &tele.Callback{Unique: "main"}, key: "main"},
		{name: "padded key", cb: &tele.Callback{Data: "\\f srv |vmess"}, key: "srv", payload: "vmess"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("ParseCallbackData = (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}
