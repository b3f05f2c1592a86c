package models

// Person represents a person with personal and contact details
type Person struct {
	PersonID  int64   `json:"person_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Gender    string  `json:"gender"`
	BirthDate string  `json:"birth_date" format:"date"`
	Address   string  `json:"address"`
	Salary    float64 `json:"salary"`
	CPF       string  `json:"cpf"`
}

func (*Person) EventType() EventType { return EventTypePerson }
