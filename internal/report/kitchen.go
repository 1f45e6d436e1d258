package report

import (
	"sort"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
)

// KitchenCounts - счетчики кухонных позиций команды
type KitchenCounts struct {
	Pending   int `json:"pending"`
	Preparing int `json:"preparing"`
	Ready     int `json:"ready"`
	Canceled  int `json:"canceled"`
}

// KitchenGroup - кухонные позиции открытых заказов одной команды
type KitchenGroup struct {
	ComandaID     int64              `json:"comanda_id"`
	ComandaNumber int                `json:"comanda_number"`
	Pending       []models.OrderItem `json:"pending"`
	Preparing     []models.OrderItem `json:"preparing"`
	Ready         []models.OrderItem `json:"ready"` // ready + delivered
	Canceled      []models.OrderItem `json:"canceled"`
	Counts        KitchenCounts      `json:"counts"`
	oldest        int64
}

// InQueue - есть что готовить
func (g KitchenGroup) InQueue() bool {
	return len(g.Pending)+len(g.Preparing) > 0
}

// KitchenBoard - экран кухни: очередь и история по командам
type KitchenBoard struct {
	Queue  []KitchenGroup `json:"queue"`
	Groups []KitchenGroup `json:"groups"`
}

// BuildKitchenBoard группирует кухонные позиции открытых заказов по командам.
// Очередь отсортирована по самой старой незавершенной позиции (меньший id - раньше).
func BuildKitchenBoard(snap *models.Snapshot) KitchenBoard {
	var groups []KitchenGroup
	for _, c := range snap.Comandas {
		items := domain.ItemsOfOrders(domain.OpenOrders(c.ID, snap.Orders), snap.OrderItems)
		g := KitchenGroup{ComandaID: c.ID, ComandaNumber: c.Number}
		for _, it := range items {
			if !domain.IsKitchenRouted(it, snap.Categories) {
				continue
			}
			switch it.Status {
			case models.ItemPending:
				g.Pending = append(g.Pending, it)
			case models.ItemPreparing:
				g.Preparing = append(g.Preparing, it)
			case models.ItemReady, models.ItemDelivered:
				g.Ready = append(g.Ready, it)
			case models.ItemCanceled:
				g.Canceled = append(g.Canceled, it)
			}
			if (it.Status == models.ItemPending || it.Status == models.ItemPreparing) && (g.oldest == 0 || it.ID < g.oldest) {
				g.oldest = it.ID
			}
		}
		g.Counts = KitchenCounts{
			Pending:   len(g.Pending),
			Preparing: len(g.Preparing),
			Ready:     len(g.Ready),
			Canceled:  len(g.Canceled),
		}
		if g.Counts != (KitchenCounts{}) {
			groups = append(groups, g)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].oldest < groups[j].oldest })

	board := KitchenBoard{Groups: groups, Queue: []KitchenGroup{}}
	for _, g := range groups {
		if g.InQueue() {
			board.Queue = append(board.Queue, g)
		}
	}
	return board
}
