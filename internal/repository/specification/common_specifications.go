package specification

import (
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var columnName = regexp.MustCompile(`^[a-z_]+(\.[a-z_]+)?$`)

type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByIDs matches nothing when IDs is empty.
type ByIDs struct {
	IDs []uuid.UUID
}

func (s ByIDs) Apply(db *gorm.DB) *gorm.DB {
	if len(s.IDs) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where("id IN ?", s.IDs)
}

// OrderBy sorts on a plain column name. Anything else is ignored so a
// caller-supplied field can never reach the SQL text.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	if !columnName.MatchString(s.Field) {
		return db
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Field}, Desc: s.Desc})
}

// Pagination is 1-based.
type Pagination struct {
	Page  int
	Limit int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	page := s.Page
	if page < 1 {
		page = 1
	}
	return db.Limit(s.Limit).Offset((page - 1) * s.Limit)
}
