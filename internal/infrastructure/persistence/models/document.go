package models

import (
	"github.com/astralisone/platform/internal/domain/document"
	"github.com/google/uuid"
)

// DocumentModel is the persistence model for the Document aggregate.
type DocumentModel struct {
	OrgAggregateModel
	Title       string                  `gorm:"type:varchar(255);not null"`
	FileName    string                  `gorm:"type:varchar(255);not null"`
	ContentType string                  `gorm:"type:varchar(100);not null;default:'application/octet-stream'"`
	Size        int64                   `gorm:"not null"`
	StorageKey  string                  `gorm:"type:varchar(600);not null"`
	Revision    int                     `gorm:"not null;default:1"`
	Status      document.DocumentStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	UploadedBy  uuid.UUID               `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() *document.Document {
	d := &document.Document{
		Title:       m.Title,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Size:        m.Size,
		StorageKey:  m.StorageKey,
		Revision:    m.Revision,
		Status:      m.Status,
		UploadedBy:  m.UploadedBy,
	}
	m.PopulateOrgAggregateRoot(&d.OrgAggregateRoot)
	return d
}

// FromDomain populates the persistence model from a domain Document
func (m *DocumentModel) FromDomain(d *document.Document) {
	m.FromDomainOrgAggregateRoot(d.OrgAggregateRoot)
	m.Title = d.Title
	m.FileName = d.FileName
	m.ContentType = d.ContentType
	m.Size = d.Size
	m.StorageKey = d.StorageKey
	m.Revision = d.Revision
	m.Status = d.Status
	m.UploadedBy = d.UploadedBy
}

// DocumentModelFromDomain creates a new persistence model from a domain Document
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}
