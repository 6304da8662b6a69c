package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&User{},
		&CartItem{},
		&Favorite{},
		&Order{},
		&OrderItem{},
	}
}
