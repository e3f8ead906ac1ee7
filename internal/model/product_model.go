package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	Id          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string                      `gorm:"type:varchar(255);not null"`
	Price       float64                     `gorm:"type:numeric(12,2);not null;default:0"`
	Category    string                      `gorm:"type:varchar(100);index"`
	Description string                      `gorm:"type:text"`
	KeyPoints   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Slug        string                      `gorm:"type:varchar(255);uniqueIndex;not null"`
	IsActive    bool                        `gorm:"default:true;index"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt              `gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

type ProductEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductId      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 / jina v2 / nomic all emit 768 dims
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (ProductEmbedding) TableName() string {
	return "product_embeddings"
}
