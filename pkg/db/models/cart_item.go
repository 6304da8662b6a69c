package models

// CartItem holds one product line in a user's cart. At most one row exists
// per (user, product).
type CartItem struct {
	ID        uint64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    string   `gorm:"column:user_id;type:text;not null;uniqueIndex:cart_items_user_product_key" json:"userId"`
	ProductID uint64   `gorm:"column:product_id;not null;uniqueIndex:cart_items_user_product_key;index:cart_items_product_id_idx" json:"productId"`
	Quantity  int      `gorm:"column:quantity;not null;default:1" json:"quantity"`
	User      *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}
