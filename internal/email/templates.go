package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type ReceiptDetails struct {
	ComplexName string
	CourtName   string
	Date        string
	TimeRange   string
	AmountCents int64
	Currency    string
	ProviderRef string
}

type ReminderDetails struct {
	ComplexName string
	CourtName   string
	Date        string
	TimeRange   string
}

// FormatDateTimeRange renders the reservation window for email bodies.
func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("02/01/2006")
	timeRange := fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04"))
	return date, timeRange
}

// FormatAmount renders cents as "PEN 100.00".
func FormatAmount(cents int64, currency string) string {
	if currency == "" {
		currency = "PEN"
	}
	return fmt.Sprintf("%s %.2f", currency, float64(cents)/100)
}

// BuildReceiptEmail builds the payment receipt sent after a confirmed charge.
func BuildReceiptEmail(details ReceiptDetails) Message {
	complexName := strings.TrimSpace(details.ComplexName)
	if complexName == "" {
		complexName = "el complejo"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "Por confirmar"
	}

	subject := fmt.Sprintf("Reserva confirmada - %s", complexName)

	lines := []string{
		"Tu reserva está confirmada. ¡Gracias por tu pago!",
		"",
		fmt.Sprintf("Complejo: %s", complexName),
		fmt.Sprintf("Cancha: %s", courtName),
		fmt.Sprintf("Fecha: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Hora: %s", strings.TrimSpace(details.TimeRange)),
		fmt.Sprintf("Monto: %s", FormatAmount(details.AmountCents, details.Currency)),
	}
	if ref := strings.TrimSpace(details.ProviderRef); ref != "" {
		lines = append(lines, fmt.Sprintf("Referencia de pago: %s", ref))
	}
	lines = append(lines, "", "Presenta este correo al llegar al complejo.")

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}

// BuildReminderEmail builds the day-before reminder for a confirmed reservation.
func BuildReminderEmail(details ReminderDetails) Message {
	complexName := strings.TrimSpace(details.ComplexName)
	if complexName == "" {
		complexName = "el complejo"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "Por confirmar"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "Por confirmar"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "Por confirmar"
	}

	subject := fmt.Sprintf("Recordatorio de reserva - %s", complexName)

	lines := []string{
		"Recordatorio: tienes una reserva próxima.",
		"",
		fmt.Sprintf("Complejo: %s", complexName),
		fmt.Sprintf("Cancha: %s", courtName),
		fmt.Sprintf("Fecha: %s", date),
		fmt.Sprintf("Hora: %s", timeRange),
	}

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}
