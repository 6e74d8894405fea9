package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FileKindCSV  string = "CSV"
	FileKindJSON string = "JSON"
	FileKindPDF  string = "PDF"
	FileKindText string = "TXT"
)

// UploadedFile is the registry entry for one session upload. The file body
// lives in the object store under ObjectKey; rows are removed when their
// session ends.
type UploadedFile struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	SessionId uuid.UUID `gorm:"type:uuid;index"`

	Name       string `gorm:"not null"`
	Kind       string `gorm:"size:20;not null"`
	Size       int64
	ObjectKey  string
	UploadTime time.Time
}

// DocumentChunk backs the local vector store: one embedded block of an
// ingested document, grouped by collection (one collection per session).
type DocumentChunk struct {
	ID uint `gorm:"primaryKey"`

	Collection string    `gorm:"index;not null"`
	DocumentId uuid.UUID `gorm:"type:uuid;index"`

	Ordinal   int
	Text      string
	Embedding datatypes.JSON `gorm:"type:jsonb;not null"` // [0.1, -0.2, …]
}
