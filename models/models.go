package models

// All returns every model that needs a table, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Product{},
		&Order{},
		&OrderItem{},
		&FoodShare{},
		&OrderShare{},
	}
}
