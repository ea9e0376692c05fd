package entity

// Operator is a salon staff member authenticated on the admin endpoints.
type Operator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
