package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"comandapos/server/internal/models"
)

// HistoryRow - одна строка истории: все закрытые заказы одного чека.
// Заказ без receipt_id (старые данные) - отдельная строка.
type HistoryRow struct {
	Key           string    `json:"key"`
	ReceiptID     string    `json:"receipt_id,omitempty"`
	OrderIDs      []int64   `json:"order_ids"`
	ComandaID     int64     `json:"comanda_id"`
	ComandaNumber *int      `json:"comanda_number,omitempty"`
	ClosedAt      time.Time `json:"closed_at"`
	ItemsCount    int       `json:"items_count"`
	TotalCents    int64     `json:"total_cents"`
}

// BuildHistoryRows группирует закрытые заказы по чеку, свежие сначала
func BuildHistoryRows(snap *models.Snapshot) []HistoryRow {
	numbers := make(map[int64]int, len(snap.Comandas))
	for _, c := range snap.Comandas {
		numbers[c.ID] = c.Number
	}
	byOrder := make(map[int64][]models.OrderItem)
	for _, it := range snap.OrderItems {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	rows := make(map[string]*HistoryRow)
	var keys []string
	for _, o := range snap.Orders {
		if !o.IsClosed() {
			continue
		}
		key := "O:" + strconv.FormatInt(o.ID, 10)
		if o.ReceiptID != nil && *o.ReceiptID != "" {
			key = "R:" + *o.ReceiptID
		}
		var total int64
		count := 0
		for _, it := range byOrder[o.ID] {
			if it.Status == models.ItemCanceled {
				continue
			}
			total += it.LineTotal()
			count += it.Quantity
		}
		closedAt := o.CreatedAt
		if o.ClosedAt != nil {
			closedAt = *o.ClosedAt
		}

		row, ok := rows[key]
		if !ok {
			row = &HistoryRow{Key: key, ReceiptID: models.Deref(o.ReceiptID), ComandaID: o.ComandaID, ClosedAt: closedAt}
			if n, ok := numbers[o.ComandaID]; ok {
				row.ComandaNumber = &n
			}
			rows[key] = row
			keys = append(keys, key)
		} else if closedAt.After(row.ClosedAt) {
			row.ClosedAt = closedAt
		}
		row.OrderIDs = append(row.OrderIDs, o.ID)
		row.ItemsCount += count
		row.TotalCents += total
	}

	out := make([]HistoryRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, *rows[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClosedAt.After(out[j].ClosedAt) })
	return out
}

// HistoryFilter - поиск по тексту и интервалу дат (границы включительно, nil - без границы)
type HistoryFilter struct {
	Query string
	From  *time.Time
	To    *time.Time
}

// FilterHistoryRows оставляет строки, подходящие под фильтр
func FilterHistoryRows(rows []HistoryRow, f HistoryFilter) []HistoryRow {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []HistoryRow
	for _, r := range rows {
		if f.From != nil && r.ClosedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && r.ClosedAt.After(*f.To) {
			continue
		}
		if q != "" && !r.matches(q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (r HistoryRow) matches(q string) bool {
	ids := make([]string, len(r.OrderIDs))
	for i, id := range r.OrderIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	fields := []string{r.ReceiptID, strconv.FormatInt(r.ComandaID, 10), strings.Join(ids, ",")}
	if r.ComandaNumber != nil {
		fields = append(fields, strconv.Itoa(*r.ComandaNumber))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// DayBounds - начало и конец календарного дня в зоне loc
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}
