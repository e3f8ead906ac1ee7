package specification

import "gorm.io/gorm"

// ByIntent filters conversations on the denormalised intent column.
type ByIntent struct {
	Intent string
}

func (s ByIntent) Apply(db *gorm.DB) *gorm.DB {
	if s.Intent == "" {
		return db
	}
	return db.Where("intent = ?", s.Intent)
}
