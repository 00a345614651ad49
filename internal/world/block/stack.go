package block

import "fmt"

// Stack описывает стопку предметов, выпадающую при разрушении
type Stack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// IsEmpty сообщает, что стопка ничего не содержит
func (s Stack) IsEmpty() bool {
	return s.Item == "" || s.Count <= 0
}

func (s Stack) String() string {
	return fmt.Sprintf("%dx%s", s.Count, s.Item)
}
