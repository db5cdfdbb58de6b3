package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-mdpages/cmd/markdown/internal/bootstrap"
	pagescmd "github.com/goliatone/go-mdpages/internal/commands/pages"
	"github.com/goliatone/go-mdpages/internal/pages"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runImport(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("markdown import: %v", err)
	}
}

func runImport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("markdown-import", flag.ContinueOnError)
	file := fs.String("file", "", "Markdown file to publish")
	directory := fs.String("directory", "", "Publish every markdown file in this directory instead of -file")
	recursive := fs.Bool("recursive", false, "Descend into subdirectories with -directory")
	dryRun := fs.Bool("dry-run", false, "List candidate files without creating pages")
	title := fs.String("title", "", "Page title (defaults to front matter, then the file name)")
	description := fs.String("description", "", "Page description")
	public := fs.String("public", "", "Override visibility (true or false)")
	uploadedBy := fs.String("uploaded-by", "", "User ID recorded on the page")
	assetList := fs.String("assets", "", "Comma separated files to attach to the imported page")
	altText := fs.String("alt", "", "Alt text applied to every attached asset")
	dsn := fs.String("dsn", "", "Database DSN (defaults to the module config)")
	assetsDir := fs.String("assets-dir", "", "Asset storage directory")
	baseURL := fs.String("base-url", "", "Origin prefixed to page and asset URLs")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*file == "") == (*directory == "") {
		return errors.New("exactly one of -file or -directory is required")
	}
	if *directory != "" && *assetList != "" {
		return errors.New("-assets can only be used with -file")
	}

	visibility, err := bootstrap.ParseOptionalBool(*public)
	if err != nil {
		return fmt.Errorf("parse public: %w", err)
	}
	uploader, err := bootstrap.ParseUUIDPointer(*uploadedBy)
	if err != nil {
		return fmt.Errorf("parse uploaded-by: %w", err)
	}

	module, err := moduleBuilder(ctx, bootstrap.Options{DSN: *dsn, AssetsDir: *assetsDir, BaseURL: *baseURL})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()
	handlers := module.Module.Commands()

	origin := strings.TrimRight(strings.TrimSpace(*baseURL), "/")
	report := func(page *pages.Page) {
		fmt.Fprintf(out, "%s\t%s/pages/%s\n", page.ID, origin, page.Slug)
	}

	if *directory != "" {
		return handlers.ImportDirectory.Execute(ctx, pagescmd.ImportDirectoryCommand{
			Directory:  *directory,
			Recursive:  *recursive,
			DryRun:     *dryRun,
			Public:     visibility,
			UploadedBy: uploader,
			OnCreated:  report,
		})
	}

	var created *pages.Page
	err = handlers.Import.Execute(ctx, pagescmd.ImportPageCommand{
		Path:        *file,
		Title:       *title,
		Description: *description,
		Public:      visibility,
		UploadedBy:  uploader,
		OnCreated: func(page *pages.Page) {
			created = page
			report(page)
		},
	})
	if err != nil {
		return fmt.Errorf("execute import command: %w", err)
	}

	for _, path := range bootstrap.SplitList(*assetList) {
		if err := handlers.UploadAsset.Execute(ctx, pagescmd.UploadAssetCommand{
			PageID:  created.ID,
			Path:    path,
			AltText: *altText,
		}); err != nil {
			return fmt.Errorf("attach %s: %w", path, err)
		}
	}
	return nil
}
