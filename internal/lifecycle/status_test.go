package lifecycle

import "testing"

func TestParseStatus(t *testing.T) {
	t.Parallel()

	status, err := ParseStatus("  Ready ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusReady {
		t.Fatalf("unexpected status: %q", status)
	}

	if _, err := ParseStatus("archived"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCanTransitionTo(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from Status
		to   Status
	}{
		{StatusRaw, StatusProcessing},
		{StatusProcessing, StatusRaw},
		{StatusProcessing, StatusReady},
		{StatusReady, StatusEdited},
		{StatusReady, StatusPublished},
		{StatusEdited, StatusPublished},
		{StatusEdited, StatusEdited},
		{StatusPublished, StatusEdited},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from Status
		to   Status
	}{
		{StatusRaw, StatusReady},
		{StatusRaw, StatusPublished},
		{StatusReady, StatusRaw},
		{StatusPublished, StatusRaw},
		{StatusPublished, StatusProcessing},
		{StatusEdited, StatusRaw},
	}
	for _, tc := range denied {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestPublicAndIdentityLocked(t *testing.T) {
	t.Parallel()

	if StatusRaw.Public() || StatusProcessing.Public() {
		t.Fatalf("raw and processing must not be public")
	}
	if !StatusReady.Public() || !StatusEdited.Public() || !StatusPublished.Public() {
		t.Fatalf("ready, edited and published must be public")
	}

	if StatusReady.IdentityLocked() {
		t.Fatalf("ready must not lock identity fields")
	}
	if !StatusEdited.IdentityLocked() || !StatusPublished.IdentityLocked() {
		t.Fatalf("edited and published must lock identity fields")
	}
}
