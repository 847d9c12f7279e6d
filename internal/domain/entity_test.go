package domain

import "testing"

func TestCompareAgentIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3", "7", -1},
		{"7", "3", 1},
		{"10", "9", 1}, // числа, а не строки
		{"5", "5", 0},
		{"abc", "abd", -1},
		{"b1", "a9", 1},
	}
	for _, tt := range tests {
		if got := CompareAgentIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareAgentIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRole_ParseAndOpposite(t *testing.T) {
	if ParseRole("collector") != RoleCollector {
		t.Error("expected COLLECTOR")
	}
	if ParseRole("?") != RoleNone {
		t.Error("expected NONE")
	}
	if RoleCollector.Opposite() != RoleCourier || RoleCourier.Opposite() != RoleCollector {
		t.Error("roles must be complementary")
	}
}
