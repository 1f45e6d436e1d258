package client

import "fmt"

// Имена операций: используются в политике fallback, уведомлениях и логах
const (
	OpSnapshot           = "snapshot"
	OpSelectComanda      = "select_comanda"
	OpCancelOpening      = "cancel_opening"
	OpCreateComanda      = "create_comanda"
	OpDeleteComanda      = "delete_comanda"
	OpSubmitOrder        = "submit_order"
	OpAddItemToOrder     = "add_item_to_order"
	OpSetItemStatus      = "set_item_status"
	OpUpdateItemQuantity = "update_item_quantity"
	OpDeleteItem         = "delete_item"
	OpReopen             = "reopen"
	OpFinalize           = "finalize"
	OpGetReceipt         = "get_receipt"
	OpUpsertPayments     = "upsert_payments"
	OpCatalog            = "catalog"
)

// Policy решает, можно ли при недоступном бэкенде выполнить операцию локально
type Policy struct {
	// AllowLocalFallback - глобальный выключатель (ALLOW_LOCAL_FALLBACK)
	AllowLocalFallback bool
	// Deny - операции, для которых fallback запрещен даже при включенном выключателе
	Deny map[string]bool
}

// DefaultPolicy: все можно, кроме закрытия команды (разные чеки на разных устройствах)
func DefaultPolicy() Policy {
	return Policy{
		AllowLocalFallback: true,
		Deny:               map[string]bool{OpFinalize: true},
	}
}

// Allows - разрешен ли fallback для op
func (p Policy) Allows(op string) bool {
	return p.AllowLocalFallback && !p.Deny[op]
}

// Notice - видимое пользователю уведомление о том, что операция выполнена локально
type Notice struct {
	Op             string
	AppliedLocally bool
	Cause          error
}

func (n *Notice) String() string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%s: сервер недоступен, применено локально (%v)", n.Op, n.Cause)
}
