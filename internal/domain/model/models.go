package model

// マイグレーション対象（依存順）
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&Category{},
		&Product{},
		&Review{},
		&CartItem{},
		&Address{},
		&Order{},
		&OrderItem{},
		&Newsletter{},
		&AuditLog{},
		&InventoryAdjustment{},
	}
}
