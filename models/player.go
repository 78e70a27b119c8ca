package models

// Category — игровая категория атлета.
type Category string

const (
	CategoryA        Category = "A"
	CategoryB        Category = "B"
	CategoryC        Category = "C"
	CategoryBeginner Category = "Iniciante"
	CategoryPro      Category = "Pro"
	CategoryMixed    Category = "Mista"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryA, CategoryB, CategoryC, CategoryBeginner, CategoryPro, CategoryMixed:
		return true
	}
	return false
}

// Player представляет атлета. Хранится в коллекции players.
type Player struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Phone    *string  `json:"phone,omitempty"`
	Category Category `json:"category"`
	Email    *string  `json:"email,omitempty"`
	PhotoURL *string  `json:"photoUrl,omitempty"`
}
