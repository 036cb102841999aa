package router

import "testing"

func TestResolveID(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`"42"`, "42"},
		{`42`, "42"},
		{`{"chatId":"42"}`, "42"},
		{`{"chatId":42}`, "42"},
		{`{"channelId":"42"}`, ""},
		{`{"chatId":{"nested":true}}`, ""},
		{`["42"]`, ""},
		{`null`, ""},
		{``, ""},
		{`{broken`, ""},
	}
	for _, tt := range tests {
		if got := resolveID([]byte(tt.payload), "chatId"); got != tt.want {
			t.Errorf("resolveID(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}
