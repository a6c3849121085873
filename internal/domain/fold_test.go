package domain

import "testing"

func TestFoldUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"alice", "alice"},
		{"José", "jose"},
		{"JOSÉ", "jose"},
		{"Jose", "jose"},
		{"Åsa", "asa"},
		{"Müller", "muller"},
		{"no_change-123", "no_change-123"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := FoldUsername(tc.in); got != tc.want {
			t.Fatalf("FoldUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFoldUsernameEquatesAccentVariants(t *testing.T) {
	if FoldUsername("José") != FoldUsername("jose") {
		t.Fatalf("expected accent variants to fold equal")
	}
	if FoldUsername("Alice") == FoldUsername("Alicia") {
		t.Fatalf("distinct names must not fold equal")
	}
}
