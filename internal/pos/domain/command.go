package domain

// CommandType discriminates the command union. The vocabulary is shared by the
// store, the demo loop, and the display surfaces.
type CommandType string

const (
	CmdAddItem        CommandType = "ADD_ITEM"
	CmdRemoveItem     CommandType = "REMOVE_ITEM"
	CmdUpdateQuantity CommandType = "UPDATE_QUANTITY"
	CmdClearCart      CommandType = "CLEAR_CART"
	CmdCheckout       CommandType = "CHECKOUT"
	CmdCancelCheckout CommandType = "CANCEL_CHECKOUT"
	CmdProcessPayment CommandType = "PROCESS_PAYMENT"
	// CmdRetryPayment is an alias of CmdProcessPayment kept for surface
	// compatibility; the store treats both identically.
	CmdRetryPayment   CommandType = "RETRY_PAYMENT"
	CmdNewTransaction CommandType = "NEW_TRANSACTION"
	CmdDemoOrder      CommandType = "DEMO_ORDER"
	CmdStartDemoLoop  CommandType = "START_DEMO_LOOP"
	CmdStopDemoLoop   CommandType = "STOP_DEMO_LOOP"
)

// Command is a typed mutation request. Index is a pointer so that "no index"
// and "index 0" stay distinguishable on the wire.
type Command struct {
	Type     CommandType `json:"type"`
	SKU      string      `json:"sku,omitempty"`
	Index    *int        `json:"index,omitempty"`
	Quantity int         `json:"quantity,omitempty"`
}

// FailureCode is the machine-readable reason a command was rejected.
type FailureCode string

const (
	FailUnknownCommand        FailureCode = "unknown_command"
	FailUnknownProduct        FailureCode = "unknown_product"
	FailMaxQuantityReached    FailureCode = "max_quantity_reached"
	FailMaxQuantityExceeded   FailureCode = "max_quantity_exceeded"
	FailOutOfStock            FailureCode = "out_of_stock"
	FailInsufficientStock     FailureCode = "insufficient_stock"
	FailNotFound              FailureCode = "not_found"
	FailInvalidIndex          FailureCode = "invalid_index"
	FailSkuMismatch           FailureCode = "sku_mismatch"
	FailEmptyCart             FailureCode = "empty_cart"
	FailTransactionInProgress FailureCode = "transaction_in_progress"
	FailInvalidState          FailureCode = "invalid_state"
	FailPaymentDeclined       FailureCode = "payment_declined"
	FailDemoUnavailable       FailureCode = "demo_unavailable"
)

// Result is the outcome of a dispatched command. Failures are data, never
// panics, so callers cannot forget to handle them.
type Result struct {
	Success bool        `json:"success"`
	Code    FailureCode `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK is the successful result.
func OK() Result {
	return Result{Success: true}
}

// Fail builds a rejection with a machine code and human-readable message.
func Fail(code FailureCode, msg string) Result {
	return Result{Success: false, Code: code, Error: msg}
}
