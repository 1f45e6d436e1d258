package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"comandapos/server/internal/client"
	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/report"
)

const helpText = `команды:
  comandas                        список команд
  menu                            меню
  open <comanda>                  выбрать команду
  cancel <comanda>                отменить открытие (если заказов нет)
  add <comanda> <item> [qty] [price]
  cart <comanda>                  корзина
  inc|dec|rm <comanda> <temp_id>  строка корзины
  clear <comanda>                 очистить корзину
  submit <comanda>                отправить корзину
  items <comanda>                 открытые позиции
  status <item_id> <status>       pending|preparing|ready|delivered|canceled
  qty <item_id> <n>               количество (0 - удалить)
  del <item_id>                   удалить позицию
  pay <comanda> <method>          закрыть одной оплатой
  pay <comanda> m=amt m=amt ...   закрыть с разбивкой
  receipt <receipt_id>            чек
  print <receipt_id>              текст чека для принтера
  kitchen                         очередь кухни
  history [поиск]                 закрытые чеки
  payments <receipt_id> m=amt ... заменить оплаты чека
  reopen-order <order_id>
  reopen-receipt <receipt_id>
  new-comanda <number>
  drop-comanda <comanda>
  login <user> <password>         токен администратора (режим server)
  quit`

var errQuit = errors.New("quit")

// authenticator - вход администратора на сервере
type authenticator interface {
	Login(ctx context.Context, username, password string) (time.Time, error)
}

type shell struct {
	pos   *client.Client
	out   io.Writer
	login authenticator // nil в локальном режиме
}

func newShell(c *client.Client, out io.Writer) *shell {
	return &shell{pos: c, out: out}
}

// repl читает команды до EOF, quit или отмены контекста
func (s *shell) repl(ctx context.Context, in *bufio.Scanner) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			select {
			case lines <- in.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(s.out, "comanda-pos, режим", s.pos.Mode(), "- help для списка команд")
	for {
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			args := strings.Fields(line)
			if len(args) == 0 {
				continue
			}
			err := s.exec(ctx, args)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(s.out, "❌", describe(err))
			}
		}
	}
}

// exec выполняет одну команду
func (s *shell) exec(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "comandas", "ls":
		s.printComandas()
		return nil
	case "menu":
		s.printMenu()
		return nil
	case "kitchen":
		s.printKitchen()
		return nil
	case "history":
		s.printHistory(strings.Join(rest, " "))
		return nil
	}

	switch cmd {
	case "open", "cancel", "cart", "clear", "submit", "items", "drop-comanda", "add", "inc", "dec", "rm", "pay":
		if len(rest) < 1 {
			return fmt.Errorf("%s: нужен номер команды", cmd)
		}
		comandaID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s: неверный номер команды %q", cmd, rest[0])
		}
		return s.comandaCommand(ctx, cmd, comandaID, rest[1:])
	case "status", "qty", "del":
		if len(rest) < 1 {
			return fmt.Errorf("%s: нужен id позиции", cmd)
		}
		itemID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s: неверный id позиции %q", cmd, rest[0])
		}
		return s.itemCommand(ctx, cmd, itemID, rest[1:])
	case "receipt":
		if len(rest) != 1 {
			return fmt.Errorf("receipt: нужен id чека")
		}
		r, err := s.pos.Receipt(ctx, rest[0])
		if err != nil {
			return err
		}
		s.printReceipt(r)
		return nil
	case "print":
		if len(rest) != 1 {
			return fmt.Errorf("print: нужен id чека")
		}
		r, err := s.pos.Receipt(ctx, rest[0])
		if err != nil {
			return err
		}
		payments, err := s.pos.ReceiptPayments(ctx, rest[0])
		if err != nil {
			return err
		}
		snap := s.pos.View().Snapshot
		fmt.Fprintln(s.out, report.BuildReceiptText(report.ReceiptInputFor(&snap, r, payments)))
		return nil
	case "payments":
		if len(rest) < 2 {
			return fmt.Errorf("payments: нужен id чека и оплаты")
		}
		parts, err := parseParts(rest[1:])
		if err != nil {
			return err
		}
		res, notice, err := s.pos.UpsertPayments(ctx, rest[0], parts)
		if err != nil {
			return err
		}
		s.printReceipt(res.Receipt)
		s.printNotice(notice)
		return nil
	case "reopen-order":
		if len(rest) != 1 {
			return fmt.Errorf("reopen-order: нужен id заказа")
		}
		orderID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return err
		}
		notice, err := s.pos.ReopenOrder(ctx, orderID)
		return s.done(notice, err)
	case "reopen-receipt":
		if len(rest) != 1 {
			return fmt.Errorf("reopen-receipt: нужен id чека")
		}
		notice, err := s.pos.ReopenReceipt(ctx, rest[0])
		return s.done(notice, err)
	case "new-comanda":
		if len(rest) != 1 {
			return fmt.Errorf("new-comanda: нужен номер")
		}
		number, err := strconv.Atoi(rest[0])
		if err != nil {
			return err
		}
		c, notice, err := s.pos.CreateComanda(ctx, number)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "команда #%d создана (id %d)\n", c.Number, c.ID)
		s.printNotice(notice)
		return nil
	case "login":
		if s.login == nil {
			return fmt.Errorf("login: вход нужен только в режиме server")
		}
		if len(rest) != 2 {
			return fmt.Errorf("login: нужны логин и пароль")
		}
		exp, err := s.login.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "вход выполнен, токен до %s\n", exp.Local().Format("15:04"))
		return nil
	}
	return fmt.Errorf("неизвестная команда %q, help для списка", cmd)
}

func (s *shell) comandaCommand(ctx context.Context, cmd string, comandaID int64, rest []string) error {
	switch cmd {
	case "open":
		c, notice, err := s.pos.SelectComanda(ctx, comandaID)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "команда #%d: %s, %s\n", c.Number, c.Status, formatCents(c.Total))
		s.printNotice(notice)
	case "cancel":
		ok, notice, err := s.pos.CancelOpening(ctx, comandaID)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(s.out, "открытие отменено")
		} else {
			fmt.Fprintln(s.out, "в команде есть заказы, отмена невозможна")
		}
		s.printNotice(notice)
	case "add":
		if len(rest) < 1 {
			return fmt.Errorf("add: нужен id позиции меню")
		}
		menuID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("add: неверный id меню %q", rest[0])
		}
		opts := pos.CartOptions{Quantity: 1}
		if len(rest) > 1 {
			if opts.Quantity, err = strconv.Atoi(rest[1]); err != nil {
				return fmt.Errorf("add: неверное количество %q", rest[1])
			}
		}
		if len(rest) > 2 {
			price, err := parseAmount(rest[2])
			if err != nil {
				return err
			}
			opts.Price = &price
		}
		cart, err := s.pos.AddToCart(comandaID, menuID, opts)
		if err != nil {
			return err
		}
		s.printCart(cart)
	case "cart":
		s.printCart(s.pos.Cart(comandaID))
	case "inc", "dec", "rm":
		if len(rest) != 1 {
			return fmt.Errorf("%s: нужен temp_id строки", cmd)
		}
		var cart pos.Cart
		switch cmd {
		case "inc":
			cart = s.pos.IncrementCartLine(comandaID, rest[0])
		case "dec":
			cart = s.pos.DecrementCartLine(comandaID, rest[0])
		default:
			cart = s.pos.RemoveCartLine(comandaID, rest[0])
		}
		s.printCart(cart)
	case "clear":
		s.pos.ClearCart(comandaID)
		fmt.Fprintln(s.out, "корзина очищена")
	case "submit":
		res, notice, err := s.pos.SubmitOrder(ctx, comandaID)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "заказ %d: %d позиций\n", res.Order.ID, len(res.Items))
		s.printItems(res.Items)
		s.printNotice(notice)
	case "items":
		s.printItems(s.openItems(comandaID))
	case "drop-comanda":
		notice, err := s.pos.DeleteComanda(ctx, comandaID)
		return s.done(notice, err)
	case "pay":
		return s.pay(ctx, comandaID, rest)
	}
	return nil
}

func (s *shell) itemCommand(ctx context.Context, cmd string, itemID int64, rest []string) error {
	switch cmd {
	case "status":
		if len(rest) != 1 {
			return fmt.Errorf("status: нужен новый статус")
		}
		it, notice, err := s.pos.SetItemStatus(ctx, itemID, models.ItemStatus(rest[0]))
		if err != nil {
			return err
		}
		s.printItems([]models.OrderItem{it})
		s.printNotice(notice)
	case "qty":
		if len(rest) != 1 {
			return fmt.Errorf("qty: нужно количество")
		}
		q, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("qty: неверное количество %q", rest[0])
		}
		it, notice, err := s.pos.UpdateItemQuantity(ctx, itemID, q)
		if err != nil {
			return err
		}
		if it == nil {
			fmt.Fprintln(s.out, "позиция удалена")
		} else {
			s.printItems([]models.OrderItem{*it})
		}
		s.printNotice(notice)
	case "del":
		notice, err := s.pos.DeleteItem(ctx, itemID)
		return s.done(notice, err)
	}
	return nil
}

// pay открывает окно оплаты и сразу закрывает команду
func (s *shell) pay(ctx context.Context, comandaID int64, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("pay: нужен способ оплаты")
	}
	dlg, err := s.pos.OpenPaymentDialog(comandaID)
	if err != nil {
		return err
	}
	var pay domain.Payment
	if len(rest) == 1 && !strings.Contains(rest[0], "=") {
		pay.Method = rest[0]
	} else {
		if pay.Parts, err = parseParts(rest); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "к оплате %s\n", formatCents(dlg.TotalCents))
	res, notice, err := s.pos.FinalizeComanda(ctx, dlg, pay)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "команда закрыта, чек %s\n", res.ReceiptID)
	s.printReceipt(res.Receipt)
	s.printNotice(notice)
	return nil
}

func (s *shell) done(notice *client.Notice, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "ok")
	s.printNotice(notice)
	return nil
}

func (s *shell) openItems(comandaID int64) []models.OrderItem {
	view := s.pos.View()
	var open []models.Order
	for _, o := range view.Orders {
		if o.ComandaID == comandaID && !o.IsClosed() {
			open = append(open, o)
		}
	}
	return domain.ItemsOfOrders(open, view.OrderItems)
}

func (s *shell) printComandas() {
	comandas := append([]models.Comanda(nil), s.pos.View().Comandas...)
	sort.Slice(comandas, func(i, j int) bool { return comandas[i].Number < comandas[j].Number })
	active := s.pos.ActiveComanda()
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tСТАТУС\tИТОГО\t")
	for _, c := range comandas {
		mark := ""
		if c.ID == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%d%s\t%d\t%s\t%s\t\n", c.Number, mark, c.ID, c.Status, formatCents(c.Total))
	}
	_ = w.Flush()
}

func (s *shell) printMenu() {
	view := s.pos.View()
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tКАТЕГОРИЯ\tЦЕНА\t")
	for _, mi := range view.MenuItems {
		if !mi.Available {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", mi.ID, mi.Name, mi.Category, formatCents(mi.Price))
	}
	_ = w.Flush()
}

func (s *shell) printKitchen() {
	snap := s.pos.View().Snapshot
	board := report.BuildKitchenBoard(&snap)
	if len(board.Queue) == 0 {
		fmt.Fprintln(s.out, "кухня свободна")
		return
	}
	for _, g := range board.Queue {
		fmt.Fprintf(s.out, "#%d: %d в очереди\n", g.ComandaNumber, g.Counts.Pending+g.Counts.Preparing)
		s.printItems(append(append([]models.OrderItem(nil), g.Pending...), g.Preparing...))
	}
}

func (s *shell) printHistory(query string) {
	snap := s.pos.View().Snapshot
	rows := report.FilterHistoryRows(report.BuildHistoryRows(&snap), report.HistoryFilter{Query: query})
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ЧЕК\tКОМАНДА\tПОЗИЦИЙ\tИТОГО\tЗАКРЫТ\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t\n", r.ReceiptID, r.ComandaID, r.ItemsCount, formatCents(r.TotalCents), r.ClosedAt.Local().Format("02/01 15:04"))
	}
	_ = w.Flush()
}

func (s *shell) printCart(cart pos.Cart) {
	if len(cart) == 0 {
		fmt.Fprintln(s.out, "корзина пуста")
		return
	}
	view := s.pos.View()
	names := make(map[int64]string, len(view.MenuItems))
	for _, mi := range view.MenuItems {
		names[mi.ID] = mi.Name
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, l := range cart {
		name := l.DisplayName
		if name == "" {
			name = names[l.MenuItemID]
		}
		fmt.Fprintf(w, "%s\t%dx\t%s\t\n", l.TempID, l.Quantity, name)
	}
	fmt.Fprintf(w, "\t\t%s\t\n", formatCents(cart.Total(view.MenuItems)))
	_ = w.Flush()
}

func (s *shell) printItems(items []models.OrderItem) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%dx %s\t%s\t%s\t\n", it.ID, it.Quantity, it.Name, it.Status, formatCents(it.LineTotal()))
	}
	_ = w.Flush()
}

func (s *shell) printReceipt(r models.Receipt) {
	method := "разделена"
	if r.PaymentMethod != nil {
		method = *r.PaymentMethod
	}
	fmt.Fprintf(s.out, "чек %s: %s, оплата %s, закрыт %s\n",
		r.ReceiptID, formatCents(r.TotalCents), method, r.ClosedAt.Local().Format("02/01 15:04"))
}

func (s *shell) printNotice(n *client.Notice) {
	if n != nil {
		fmt.Fprintln(s.out, "⚠️", n.String())
	}
}

// describe - человекочитаемая ошибка
func describe(err error) string {
	var blocked *domain.BlockedByKitchenError
	var policy *domain.PolicyBlockedError
	var unauth *domain.UnauthorizedError
	switch {
	case errors.As(err, &unauth):
		return "нужен вход администратора: login <user> <password> (" + unauth.Message + ")"
	case errors.As(err, &blocked):
		return fmt.Sprintf("кухня еще не готова: %d позиций в работе", blocked.Pending)
	case errors.As(err, &policy):
		return fmt.Sprintf("сервер недоступен, %s без сервера запрещено", policy.Op)
	}
	return err.Error()
}
