package assets

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Category groups MIME types by how a page uses them.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryOther    Category = "other"
)

// Asset is a file attached to a page and served under /assets.
type Asset struct {
	bun.BaseModel `bun:"table:page_assets,alias:pa"`

	ID             uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID         uuid.UUID `bun:"page_id,notnull,type:uuid" json:"pageId"`
	Filename       string    `bun:"filename,notnull" json:"filename"`
	StoredFilename string    `bun:"stored_filename,notnull,unique" json:"storedFilename"`
	MimeType       string    `bun:"mime_type,notnull" json:"mimeType"`
	Size           int64     `bun:"size,notnull" json:"size"`
	Category       Category  `bun:"category,notnull" json:"category"`
	PublicURL      string    `bun:"public_url,notnull" json:"publicUrl"`
	AltText        *string   `bun:"alt_text" json:"altText,omitempty"`
	Checksum       string    `bun:"checksum" json:"checksum,omitempty"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

func cloneAsset(a *Asset) *Asset {
	if a == nil {
		return nil
	}
	out := *a
	if a.AltText != nil {
		alt := *a.AltText
		out.AltText = &alt
	}
	return &out
}
