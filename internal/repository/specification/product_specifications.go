package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

type ByProductID struct {
	ProductID uuid.UUID
}

func (s ByProductID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_id = ?", s.ProductID)
}
