package mailer

import (
	"strings"
	"testing"

	"github.com/lunafit/studio-booking/internal/queue"
)

func TestRenderKnownKinds(t *testing.T) {
	kinds := []string{
		queue.KindPurchaseConfirmed,
		queue.KindPurchasePending,
		queue.KindBookingConfirmed,
		queue.KindPackageExpiring,
		queue.KindClassReminder,
	}
	for _, k := range kinds {
		subject, body, err := Render(queue.NotificationEvent{
			Kind:           k,
			RecipientName:  "Mara",
			PackageTitle:   "10 Sessions",
			ClassTitle:     "Morning Flow",
			InstructorName: "Jo Reyes",
			StartsAt:       "2025-06-01T09:00:00Z",
			ExpiresAt:      "2025-07-01T00:00:00Z",
			CheckoutRef:    "ref-x",
			Credits:        10,
		})
		if err != nil {
			t.Fatalf("Render(%s): %v", k, err)
		}
		if subject == "" || body == "" {
			t.Errorf("Render(%s) produced empty subject or body", k)
		}
		if !strings.Contains(body, "Mara") {
			t.Errorf("Render(%s) body does not address the recipient", k)
		}
	}
}

func TestRenderUnlimitedPackage(t *testing.T) {
	_, body, err := Render(queue.NotificationEvent{
		Kind:         queue.KindPurchaseConfirmed,
		PackageTitle: "Monthly Unlimited",
		Unlimited:    true,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "unlimited sessions") {
		t.Errorf("body %q does not mention unlimited sessions", body)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, _, err := Render(queue.NotificationEvent{Kind: "mystery.kind"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestNewSMTPWithoutHostIsDryRun(t *testing.T) {
	m := NewSMTP("", "587", "", "", "no-reply@test")
	if err := m.Send("someone@example.com", "hi", "body"); err != nil {
		t.Fatalf("dry-run mailer returned %v", err)
	}
}
