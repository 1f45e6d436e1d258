package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"comandapos/server/internal/models"
)

const (
	historySheet = "Historico"
	summarySheet = "Resumo"
	moneyFormat  = `"R$" #,##0.00`
)

// WriteHistoryWorkbook пишет xlsx с листами истории и сводки по способам оплаты
func WriteHistoryWorkbook(w io.Writer, rows []HistoryRow, orders []models.Order, loc *time.Location) error {
	f, err := BuildHistoryWorkbook(rows, orders, loc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("ошибка записи XLSX: %w", err)
	}
	return nil
}

// BuildHistoryWorkbook собирает книгу в памяти
func BuildHistoryWorkbook(rows []HistoryRow, orders []models.Order, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		f.Close()
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(moneyFormat)})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeHistorySheet(f, rows, loc, moneyStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("лист %s: %w", historySheet, err)
	}
	if err := writeSummarySheet(f, rows, orders, loc, moneyStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("лист %s: %w", summarySheet, err)
	}
	return f, nil
}

func writeHistorySheet(f *excelize.File, rows []HistoryRow, loc *time.Location, moneyStyle int) error {
	header := []interface{}{"Recibo", "Comanda ID", "Nº Comanda", "Pedidos", "Itens", "Data/Hora", "Total"}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return err
	}
	var grand int64
	for i, r := range rows {
		receipt := r.ReceiptID
		if receipt == "" {
			receipt = "(sem receiptId)"
		}
		var number interface{} = ""
		if r.ComandaNumber != nil {
			number = *r.ComandaNumber
		}
		ids := make([]string, len(r.OrderIDs))
		for j, id := range r.OrderIDs {
			ids[j] = fmt.Sprint(id)
		}
		row := []interface{}{
			receipt, r.ComandaID, number, strings.Join(ids, ","), r.ItemsCount,
			r.ClosedAt.In(loc).Format("02/01/2006 15:04"), float64(r.TotalCents) / 100,
		}
		if err := f.SetSheetRow(historySheet, cell(1, i+2), &row); err != nil {
			return err
		}
		grand += r.TotalCents
	}
	last := len(rows) + 2
	total := []interface{}{"", "", "", "", "", "TOTAL GERAL", float64(grand) / 100}
	if err := f.SetSheetRow(historySheet, cell(1, last), &total); err != nil {
		return err
	}
	if err := f.SetCellStyle(historySheet, cell(7, 2), cell(7, last), moneyStyle); err != nil {
		return err
	}
	for i, width := range []float64{22, 12, 12, 18, 8, 20, 14} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(historySheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rows []HistoryRow, orders []models.Order, loc *time.Location, moneyStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	methodsByOrder := make(map[int64]string, len(orders))
	for _, o := range orders {
		methodsByOrder[o.ID] = strings.TrimSpace(models.Deref(o.PaymentMethod))
	}

	var grand int64
	items := 0
	start, end := "-", "-"
	var first, latest time.Time
	byMethod := make(map[string]int64)
	var methodOrder []string
	for _, r := range rows {
		grand += r.TotalCents
		items += r.ItemsCount
		if first.IsZero() || r.ClosedAt.Before(first) {
			first = r.ClosedAt
		}
		if r.ClosedAt.After(latest) {
			latest = r.ClosedAt
		}
		label := rowMethod(r, methodsByOrder)
		if _, ok := byMethod[label]; !ok {
			methodOrder = append(methodOrder, label)
		}
		byMethod[label] += r.TotalCents
	}
	if len(rows) > 0 {
		start = first.In(loc).Format("02/01/2006 15:04")
		end = latest.In(loc).Format("02/01/2006 15:04")
	}

	data := [][]interface{}{
		{"Resumo do Histórico"},
		{"Período (início)", start},
		{"Período (fim)", end},
		{"Quantidade de recibos", len(rows)},
		{"Total de itens", items},
		{"Total geral", float64(grand) / 100},
		{},
		{"Total por forma de pagamento", ""},
		{"Forma", "Total"},
	}
	for _, m := range methodOrder {
		data = append(data, []interface{}{m, float64(byMethod[m]) / 100})
	}
	for i := range data {
		if len(data[i]) == 0 {
			continue
		}
		if err := f.SetSheetRow(summarySheet, cell(1, i+1), &data[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "B6", "B6", moneyStyle); err != nil {
		return err
	}
	if len(methodOrder) > 0 {
		if err := f.SetCellStyle(summarySheet, "B10", cell(2, 9+len(methodOrder)), moneyStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 34); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 18)
}

// rowMethod - единственный способ оплаты заказов строки, "multiplos" или "nao informado"
func rowMethod(r HistoryRow, methods map[int64]string) string {
	seen := make(map[string]struct{})
	var uniq []string
	for _, id := range r.OrderIDs {
		m := methods[id]
		if m == "" {
			continue
		}
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			uniq = append(uniq, m)
		}
	}
	switch len(uniq) {
	case 0:
		return "nao informado"
	case 1:
		return uniq[0]
	}
	return "multiplos"
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func strPtr(s string) *string { return &s }
