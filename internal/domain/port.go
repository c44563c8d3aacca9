package domain

import "fmt"

// Port is a connection point on a piece of equipment
type Port struct {
	ID    ID     `json:"id"`
	Name  string `json:"nome"`
	Type  string `json:"tipo"`
	Speed string `json:"speed"`
}

// Describe returns the dropdown label used for port pickers
func (p Port) Describe() string {
	return fmt.Sprintf("%s - %s - %s", p.Name, p.Type, p.Speed)
}

// Equipment holds the full attributes shown on the equipment detail surface
type Equipment struct {
	ID       ID     `json:"id"`
	Name     string `json:"nome"`
	Type     string `json:"tipo"`
	Address  string `json:"ip_address"`
	Username string `json:"usuario"`
	Password string `json:"senha"`
	Status   string `json:"status"`
}
