package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"comandapos/server/internal/models"
)

// ReceiptWidth - ширина строки термопринтера
const ReceiptWidth = 42

const priceWidth = 10

// ReceiptHeader печатается первой строкой
var ReceiptHeader = "RESTAURANTE VILLARES"

var methodLabels = map[string]string{
	"pix":      "PIX",
	"cash":     "Dinheiro",
	"dinheiro": "Dinheiro",
	"credit":   "Cartão Crédito",
	"credito":  "Cartão Crédito",
	"debit":    "Cartão Débito",
	"debito":   "Cartão Débito",
	"vale":     "Vale/Refeição",
	"outros":   "Outros",
}

// MethodLabel - подпись способа оплаты для чека
func MethodLabel(method string) string {
	key := strings.ToLower(strings.TrimSpace(method))
	if l, ok := methodLabels[key]; ok {
		return l
	}
	if key == "" {
		return "Não informado"
	}
	return method
}

// ReceiptInput - все, что печатается на чеке
type ReceiptInput struct {
	ComandaID     int64
	ComandaNumber *int
	ClosedAt      time.Time
	Items         []models.OrderItem
	TotalCents    *int64 // nil - сумма по позициям
	Payments      []models.PaymentPart
	PaymentMethod string
	Footer        []string
	Location      *time.Location
}

// ReceiptInputFor собирает чек из снапшота по receipt_id
func ReceiptInputFor(snap *models.Snapshot, r models.Receipt, payments []models.ReceiptPayment) ReceiptInput {
	in := ReceiptInput{ClosedAt: r.ClosedAt, ComandaNumber: r.ComandaNumber, PaymentMethod: models.Deref(r.PaymentMethod)}
	total := r.TotalCents
	in.TotalCents = &total
	if r.ComandaID != nil {
		in.ComandaID = *r.ComandaID
	}
	orders := make(map[int64]struct{})
	for _, o := range snap.Orders {
		if o.ReceiptID != nil && *o.ReceiptID == r.ReceiptID {
			orders[o.ID] = struct{}{}
		}
	}
	for _, it := range snap.OrderItems {
		if _, ok := orders[it.OrderID]; ok && it.Status != models.ItemCanceled {
			in.Items = append(in.Items, it)
		}
	}
	for _, p := range payments {
		in.Payments = append(in.Payments, models.PaymentPart{Method: p.Method, AmountCents: p.AmountCents})
	}
	return in
}

// BuildReceiptText - текст чека фиксированной ширины
func BuildReceiptText(in ReceiptInput) string {
	sep := strings.Repeat("-", ReceiptWidth)
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	number := fmt.Sprint(in.ComandaID)
	if in.ComandaNumber != nil {
		number = fmt.Sprint(*in.ComandaNumber)
	}
	date := ""
	if !in.ClosedAt.IsZero() {
		date = in.ClosedAt.In(loc).Format("02/01/2006 15:04")
	}

	lines := []string{
		center(ReceiptHeader, ReceiptWidth),
		"",
		center("Comanda #"+number, ReceiptWidth),
		center(date, ReceiptWidth),
		"",
		sep,
	}

	descWidth := ReceiptWidth - 1 - priceWidth
	var sum int64
	for _, it := range in.Items {
		sum += it.LineTotal()
		for i, w := range wrap(fmt.Sprintf("%dx %s", it.Quantity, it.Name), descWidth) {
			if i == 0 {
				lines = append(lines, padRight(w, descWidth)+" "+padLeft(money(it.LineTotal()), priceWidth))
			} else {
				lines = append(lines, w)
			}
		}
	}
	total := sum
	if in.TotalCents != nil {
		total = *in.TotalCents
	}

	lines = append(lines, "", sep, "",
		padRight("TOTAL", descWidth)+" "+padLeft(money(total), priceWidth), "")

	var paid []string
	for _, p := range in.Payments {
		if p.AmountCents > 0 {
			paid = append(paid, MethodLabel(p.Method)+": "+money(p.AmountCents))
		}
	}
	switch {
	case len(paid) == 1:
		lines = append(lines, "", "Pagamento: "+paid[0], "")
	case len(paid) > 1:
		lines = append(lines, "", "Pagamentos: "+strings.Join(paid, ", "), "")
	default:
		lines = append(lines, "Forma de pagamento: "+MethodLabel(in.PaymentMethod), "")
	}
	if len(in.Footer) > 0 {
		lines = append(lines, in.Footer...)
		lines = append(lines, "")
	}
	lines = append(lines, center("Obrigado pela preferência!", ReceiptWidth))
	return strings.Join(lines, "\n")
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d.%02d", sign, cents/100, cents%100)
}

func center(s string, width int) string {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n >= width {
		return string([]rune(s)[:width])
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

// wrap переносит по словам; слово длиннее строки режется
func wrap(text string, width int) []string {
	var out []string
	line := ""
	for _, w := range strings.Fields(text) {
		next := w
		if line != "" {
			next = line + " " + w
		}
		if utf8.RuneCountInString(next) <= width {
			line = next
			continue
		}
		if line != "" {
			out = append(out, line)
		}
		line = ""
		r := []rune(w)
		for len(r) > width {
			out = append(out, string(r[:width]))
			r = r[width:]
		}
		line = string(r)
	}
	if line != "" || len(out) == 0 {
		out = append(out, line)
	}
	return out
}
