package models

// Card represents a card issued against an account
type Card struct {
	CardID         int64   `json:"card_id"`
	CardNumber     string  `json:"card_number"`
	AccountID      int64   `json:"account_id"`
	StatusID       int64   `json:"status_id"`
	Limit          float64 `json:"limit"`
	ExpirationDate string  `json:"expiration_date" format:"date"`
}

func (*Card) EventType() EventType { return EventTypeCard }
