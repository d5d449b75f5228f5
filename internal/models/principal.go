package models

// Principal is the authenticated identity carried by a request. It replaces
// server-side session state and is passed explicitly into core operations.
type Principal struct {
	Role   Role   `json:"role"`
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

func (p Principal) IsEmployee() bool { return p.Role == RoleEmployee }

func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }
