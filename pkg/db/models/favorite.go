package models

// Favorite links a user to a liked product.
type Favorite struct {
	ID        uint64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    string   `gorm:"column:user_id;type:text;not null;uniqueIndex:favorites_user_product_key" json:"userId"`
	ProductID uint64   `gorm:"column:product_id;not null;uniqueIndex:favorites_user_product_key;index:favorites_product_id_idx" json:"productId"`
	User      *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}
