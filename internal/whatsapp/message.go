package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CourtDetails feeds the message for a verified complex where a concrete
// court was picked.
type CourtDetails struct {
	ComplexName  string
	Zone         string // "district, province, department"
	CourtName    string
	CourtType    string // e.g. "Fútbol 7"
	Surface      string // e.g. "Grass sintético"
	PricePerHour float64
	Date         string // YYYY-MM-DD
	HourRange    string // "18:00 - 20:00"
	Duration     int    // hours
}

// StandardDetails feeds the message for an unverified complex, which only
// advertises a price range.
type StandardDetails struct {
	ComplexName string
	Zone        string
	PriceMin    *float64
	PriceMax    *float64
	Date        string
	HourRange   string
	Duration    int
}

var spanishWeekdays = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// HumanDate renders an ISO date the way the es-PE locale spells it, with the
// leading letter capitalized: "Viernes, 28 de agosto de 2026". Unparseable
// input is returned as-is.
func HumanDate(dateISO string) string {
	d, err := time.Parse("2006-01-02", dateISO)
	if err != nil {
		return dateISO
	}
	text := fmt.Sprintf("%s, %02d de %s de %d",
		spanishWeekdays[d.Weekday()], d.Day(), spanishMonths[d.Month()-1], d.Year())
	return strings.ToUpper(text[:1]) + text[1:]
}

// FormatDuration renders "1 hora" / "N horas", or "" for non-positive input.
func FormatDuration(hours int) string {
	if hours <= 0 {
		return ""
	}
	if hours == 1 {
		return "1 hora"
	}
	return fmt.Sprintf("%d horas", hours)
}

// FormatZone joins the location parts, defaulting to Lima when nothing is set.
func FormatZone(district, province, department string) string {
	var parts []string
	for _, p := range []string{district, province, department} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	if len(parts) == 0 {
		return "Lima"
	}
	return strings.Join(parts, ", ")
}

// BuildCourtMessage formats the reservation request for a specific court.
func BuildCourtMessage(d CourtDetails) string {
	courtType := "Por confirmar"
	if strings.TrimSpace(d.CourtType) != "" {
		courtType = strings.TrimSpace(strings.TrimSpace(d.CourtType) + " • " + strings.TrimSpace(d.Surface))
		courtType = strings.TrimSuffix(courtType, " •")
	}
	price := fmt.Sprintf("S/ %.0f/h", d.PricePerHour)
	total := fmt.Sprintf("S/ %.0f", d.PricePerHour*float64(d.Duration))

	var b strings.Builder
	writeGreeting(&b)
	fmt.Fprintf(&b, "🏟️ *Cancha:* %s\n", d.CourtName)
	fmt.Fprintf(&b, "📍 *Zona:* %s\n", d.Zone)
	fmt.Fprintf(&b, "🎯 *Tipo:* %s\n", courtType)
	fmt.Fprintf(&b, "💸 *Precio:* %s\n", price)
	fmt.Fprintf(&b, "💸 *Total:* %s\n\n", total)
	writeScheduleAndClosing(&b, d.Date, d.HourRange, d.Duration)
	return b.String()
}

// BuildStandardMessage formats the reservation request for an unverified
// complex without a court catalog.
func BuildStandardMessage(d StandardDetails) string {
	price := "S/ --"
	switch {
	case d.PriceMin != nil && d.PriceMax != nil && *d.PriceMin != *d.PriceMax:
		price = fmt.Sprintf("S/ %.0f - %.0f/h", *d.PriceMin, *d.PriceMax)
	case d.PriceMin != nil:
		price = fmt.Sprintf("S/ %.0f/h", *d.PriceMin)
	}
	total := "S/ --"
	if d.PriceMin != nil {
		hours := d.Duration
		if hours < 1 {
			hours = 1
		}
		total = fmt.Sprintf("S/ %.0f", *d.PriceMin*float64(hours))
	}

	var b strings.Builder
	writeGreeting(&b)
	fmt.Fprintf(&b, "🏟️ *Complejo:* %s\n", d.ComplexName)
	fmt.Fprintf(&b, "📍 *Zona:* %s\n", d.Zone)
	fmt.Fprintf(&b, "💸 *Precio:* %s\n", price)
	fmt.Fprintf(&b, "💸 *Total:* %s\n\n", total)
	writeScheduleAndClosing(&b, d.Date, d.HourRange, d.Duration)
	return b.String()
}

func writeGreeting(b *strings.Builder) {
	b.WriteString("Hola 👋✨\n")
	b.WriteString("Vengo de *CanchaPro* ⚽ y vi su publicación para reservar 🔥\n\n")
}

func writeScheduleAndClosing(b *strings.Builder, dateISO, hourRange string, duration int) {
	fmt.Fprintf(b, "📅 *Fecha:* %s\n", HumanDate(dateISO))
	fmt.Fprintf(b, "⏰ *Hora:* %s\n", hourRange)
	if txt := FormatDuration(duration); txt != "" {
		fmt.Fprintf(b, "🎯 *Duración:* %s\n\n", txt)
	} else {
		b.WriteString("\n")
	}
	b.WriteString("✅ ¿Está disponible en ese horario?\n")
	b.WriteString("💬 Si me confirmas, lo reservo de inmediato.\n\n")
	b.WriteString("🙏 ¡Gracias! Quedo atento(a).")
}

// BuildLink assembles the wa.me deep link for a normalized phone and message.
// Spaces are percent-encoded, not "+": WhatsApp shows the raw text otherwise.
func BuildLink(phone, message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + encoded
}
