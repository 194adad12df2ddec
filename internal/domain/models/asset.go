package models

// Balance is one asset position of an exchange account.
type Balance struct {
	Asset     string  `json:"asset"`
	Account   string  `json:"account,omitempty"`
	Available float64 `json:"available"`
	Locked    float64 `json:"locked"`
	Total     float64 `json:"total"`
	Value     float64 `json:"value"`
}

// Chain priorities accepted by the transfer endpoint.
const (
	ChainPriorityHigh   = "high"
	ChainPriorityMedium = "medium"
	ChainPriorityLow    = "low"
)

// TransferRequest is the transfer descriptor submitted to the backend.
type TransferRequest struct {
	FromAccount   string `json:"fromAccount" validate:"required"`
	ToAccount     string `json:"toAccount" validate:"required,nefield=FromAccount"`
	Coin          string `json:"coin" validate:"required,max=20"`
	Amount        string `json:"amount" validate:"required,positive_decimal"`
	ChainPriority string `json:"chainPriority,omitempty" validate:"omitempty,oneof=high medium low"`
	TransferType  string `json:"transferType,omitempty"`
	Wallet        string `json:"wallet,omitempty"`
}

// TransferReceipt is the backend's acknowledgement of a transfer.
type TransferReceipt struct {
	ID      string `json:"id,omitempty"`
	Status  string `json:"status,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
	Message string `json:"message,omitempty"`
}

// TransferRecord is one row of the transfer history.
type TransferRecord struct {
	ID     string  `json:"id"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Coin   string  `json:"coin"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
	Date   string  `json:"date"`
	TxHash string  `json:"txHash,omitempty"`
}
