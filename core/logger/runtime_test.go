package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestCompactRID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123:456:789", "3f.co.lx"},
		{"0:0:0", "0.0.0"},
		{"not-a-rid", "not-a-rid"},
		{"1:2", "1:2"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CompactRID(tc.in); got != tc.want {
			t.Fatalf("CompactRID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "ab\x00cd\tef\n"
	got := Sanitize(in)
	if got != "abcd\tef\n" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("abc", 0); got != "" {
		t.Fatalf("SanitizeLimit with zero max = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	allowed := 0
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}

	s.Set(0, 0)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		spec     string
		num, den int
	}{
		{"1/50", 1, 50},
		{"3/10", 3, 10},
		{"25", 1, 25},
		{"0", 0, 0},
		{"", 0, 0},
		{"garbage", 0, 0},
	}
	for _, tc := range cases {
		num, den := parseRatioSpec(tc.spec)
		if num != tc.num || den != tc.den {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", tc.spec, num, den, tc.num, tc.den)
		}
	}
}

func TestHandlerCarriedIntoLogLines(t *testing.T) {
	ctx := WithHandler(context.Background(), "callback.buy")
	if got := HandlerFrom(ctx); got != "callback.buy" {
		t.Fatalf("HandlerFrom = %q", got)
	}
	if got := HandlerFrom(context.Background()); got != "" {
		t.Fatalf("HandlerFrom on empty context = %q", got)
	}

	var buf bytes.Buffer
	logg := slog.New(slog.NewTextHandler(&buf, nil))
	LogEvent(ctx, logg, slog.LevelInfo, "update.handled")
	line := buf.String()
	if !strings.Contains(line, "handler=callback.buy") {
		t.Fatalf("log line missing handler attr: %q", line)
	}
	if !strings.Contains(line, "event=update.handled") {
		t.Fatalf("log line missing event attr: %q", line)
	}
}
