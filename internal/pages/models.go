package pages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Page is a published markdown document.
type Page struct {
	bun.BaseModel `bun:"table:markdown_pages,alias:mp"`

	ID           uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Title        string     `bun:"title,notnull" json:"title"`
	Slug         string     `bun:"slug,notnull,unique" json:"slug"`
	Content      string     `bun:"content,notnull" json:"content"`
	Description  *string    `bun:"description" json:"description,omitempty"`
	IsPublic     bool       `bun:"is_public,notnull" json:"isPublic"`
	IsActive     bool       `bun:"is_active,notnull" json:"isActive"`
	ViewCount    int64      `bun:"view_count,notnull" json:"viewCount"`
	CustomDomain *string    `bun:"custom_domain" json:"customDomain,omitempty"`
	UploadedBy   *uuid.UUID `bun:"uploaded_by,type:uuid" json:"uploadedBy,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// PageView is one counted visit.
type PageView struct {
	bun.BaseModel `bun:"table:page_views,alias:pv"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID    uuid.UUID `bun:"page_id,notnull,type:uuid" json:"pageId"`
	VisitorIP *string   `bun:"visitor_ip" json:"visitorIp,omitempty"`
	UserAgent *string   `bun:"user_agent" json:"userAgent,omitempty"`
	Referer   *string   `bun:"referer" json:"referer,omitempty"`
	ViewedAt  time.Time `bun:"viewed_at,nullzero,notnull,default:current_timestamp" json:"viewedAt"`
}

func clonePage(p *Page) *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Description = cloneString(p.Description)
	out.CustomDomain = cloneString(p.CustomDomain)
	if p.UploadedBy != nil {
		id := *p.UploadedBy
		out.UploadedBy = &id
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
