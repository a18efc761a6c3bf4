package chat

import "testing"

func TestParseRoleKnown(t *testing.T) {
	for _, raw := range []string{"user", "assistant", "system"} {
		role, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q) err: %v", raw, err)
		}
		if string(role) != raw {
			t.Fatalf("ParseRole(%q) = %q", raw, role)
		}
	}
}

func TestParseRoleUnknown(t *testing.T) {
	for _, raw := range []string{"", "bot", "User", "moderator"} {
		if _, err := ParseRole(raw); err == nil {
			t.Fatalf("expected error for role %q", raw)
		}
	}
}
