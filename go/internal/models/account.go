package models

// Account represents a bank account owned by a person
type Account struct {
	AccountID        int64   `json:"account_id"`
	StatusID         int64   `json:"status_id"`
	DueDay           int64   `json:"due_day"`
	PersonID         int64   `json:"person_id"`
	Balance          float64 `json:"balance"`
	AvailableBalance float64 `json:"available_balance"`
}

func (*Account) EventType() EventType { return EventTypeAccount }
