package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	"github.com/goliatone/go-mdpages/internal/pages"
)

// EnsureSchema creates the tables used by the page store when missing.
// Parents come first so the cascading foreign keys resolve.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	tables := []struct {
		name  string
		model any
		fk    string
	}{
		{name: "users", model: (*auth.User)(nil)},
		{
			name:  "markdown_pages",
			model: (*pages.Page)(nil),
			fk:    `("uploaded_by") REFERENCES "users" ("id") ON DELETE SET NULL`,
		},
		{
			name:  "page_assets",
			model: (*assets.Asset)(nil),
			fk:    `("page_id") REFERENCES "markdown_pages" ("id") ON DELETE CASCADE`,
		},
		{
			name:  "page_views",
			model: (*pages.PageView)(nil),
			fk:    `("page_id") REFERENCES "markdown_pages" ("id") ON DELETE CASCADE`,
		},
	}

	for _, table := range tables {
		q := db.NewCreateTable().Model(table.model).IfNotExists()
		if table.fk != "" {
			q = q.ForeignKey(table.fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", table.name, err)
		}
	}

	if _, err := db.NewCreateIndex().
		Model((*assets.Asset)(nil)).
		Index("idx_page_assets_page_id").
		Column("page_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create index page_assets.page_id: %w", err)
	}
	return nil
}
