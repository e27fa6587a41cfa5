package email

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEmailSender struct {
	sendCalls     int32
	sendFromCalls int32
	sendDone      chan string
	sendFromDone  chan string
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{
		sendDone:     make(chan string, 1),
		sendFromDone: make(chan string, 1),
	}
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	atomic.AddInt32(&f.sendCalls, 1)
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case f.sendDone <- recipient:
	default:
	}
	return nil
}

func (f *fakeEmailSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	atomic.AddInt32(&f.sendFromCalls, 1)
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case f.sendFromDone <- recipient:
	default:
	}
	return nil
}

func waitForRecipient(t *testing.T, ch <-chan string, message string) string {
	t.Helper()

	select {
	case recipient := <-ch:
		return recipient
	case <-time.After(500 * time.Millisecond):
		t.Fatal(message)
		return ""
	}
}

func TestSendReceiptEmail_DetachedFromRequestContext(t *testing.T) {
	sender := newFakeEmailSender()

	// A handler context that is already cancelled must not abort the send.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	SendReceiptEmail(ctx, sender, "jugador@example.com", Message{
		Subject: "Reserva confirmada",
		Body:    "Cuerpo",
	}, nil)

	recipient := waitForRecipient(t, sender.sendDone, "expected receipt send to complete")
	if recipient != "jugador@example.com" {
		t.Errorf("recipient = %q", recipient)
	}
}

func TestSendReceiptEmail_SkipsEmptyRecipient(t *testing.T) {
	sender := newFakeEmailSender()

	SendReceiptEmail(context.Background(), sender, "   ", Message{Subject: "s", Body: "b"}, nil)
	SendReceiptEmail(context.Background(), sender, "jugador@example.com", Message{}, nil)

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&sender.sendCalls); n != 0 {
		t.Errorf("send calls = %d, want 0", n)
	}
}

func TestSendReminderEmail_Sends(t *testing.T) {
	sender := newFakeEmailSender()

	SendReminderEmail(context.Background(), sender, "jugador@example.com", Message{
		Subject: "Recordatorio",
		Body:    "Cuerpo",
	}, "reservas@canchapro.pe", nil)

	recipient := waitForRecipient(t, sender.sendFromDone, "expected reminder send to complete")
	if recipient != "jugador@example.com" {
		t.Errorf("recipient = %q", recipient)
	}
}

func TestBuildReceiptEmail(t *testing.T) {
	msg := BuildReceiptEmail(ReceiptDetails{
		ComplexName: "Complejo San Miguel",
		CourtName:   "Cancha 1",
		Date:        "28/08/2026",
		TimeRange:   "18:00 - 20:00",
		AmountCents: 10000,
		Currency:    "PEN",
		ProviderRef: "chr_live_1",
	})

	if msg.Subject != "Reserva confirmada - Complejo San Miguel" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Cancha 1", "18:00 - 20:00", "PEN 100.00", "chr_live_1"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestBuildReminderEmail_Defaults(t *testing.T) {
	msg := BuildReminderEmail(ReminderDetails{})
	if !strings.Contains(msg.Body, "Por confirmar") {
		t.Errorf("body should default missing fields:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Subject, "el complejo") {
		t.Errorf("subject = %q", msg.Subject)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(12550, "PEN"); got != "PEN 125.50" {
		t.Errorf("FormatAmount = %q", got)
	}
	if got := FormatAmount(500, ""); got != "PEN 5.00" {
		t.Errorf("FormatAmount default currency = %q", got)
	}
}

func TestSanitizeRecipient(t *testing.T) {
	if got := SanitizeRecipient("jugador@example.com"); got != "ju***@example.com" {
		t.Errorf("SanitizeRecipient = %q", got)
	}
	if got := SanitizeRecipient("a@b.com"); got != "***" {
		t.Errorf("SanitizeRecipient short = %q", got)
	}
}
