package pagescmd

import (
	"os"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/commands"
	"github.com/goliatone/go-mdpages/internal/pages"
)

// Text codes surfaced by the page and asset commands.
const (
	TextCodeSourceMissing    = "MDPAGES_SOURCE_NOT_FOUND"
	TextCodeSourceTooLarge   = "MDPAGES_SOURCE_TOO_LARGE"
	TextCodePageInvalid      = "MDPAGES_PAGE_INVALID"
	TextCodeSlugConflict     = "MDPAGES_SLUG_CONFLICT"
	TextCodePageMissing      = "MDPAGES_PAGE_NOT_FOUND"
	TextCodeAssetTooLarge    = "MDPAGES_ASSET_TOO_LARGE"
	TextCodeAssetUnsupported = "MDPAGES_ASSET_UNSUPPORTED"
	TextCodeImportIncomplete = "MDPAGES_IMPORT_INCOMPLETE"
)

var (
	sourceFailures = commands.Classify(
		commands.When(os.ErrNotExist, commands.Failure{
			Category: goerrors.CategoryNotFound,
			TextCode: TextCodeSourceMissing,
			Message:  "source file not found",
		}),
		commands.When(ErrFileTooLarge, commands.Failure{
			Category: goerrors.CategoryBadInput,
			TextCode: TextCodeSourceTooLarge,
			Message:  "markdown file too large",
		}),
	)

	classifyImportError = commands.Classify(
		sourceFailures,
		commands.When(pages.ErrInvalidRequest, commands.Failure{
			Category: goerrors.CategoryValidation,
			TextCode: TextCodePageInvalid,
			Message:  "page rejected",
		}),
		commands.When(pages.ErrSlugExists, commands.Failure{
			Category: goerrors.CategoryConflict,
			TextCode: TextCodeSlugConflict,
			Message:  "slug unavailable",
		}),
	)

	// Per-file causes stay reachable through errors.Is on the returned error.
	classifyDirectoryError = commands.Classify(
		commands.When(ErrImportIncomplete, commands.Failure{
			Category: goerrors.CategoryOperation,
			TextCode: TextCodeImportIncomplete,
			Message:  "some files were not imported",
		}),
		sourceFailures,
	)

	classifyUploadError = commands.Classify(
		sourceFailures,
		func(err error) (commands.Failure, bool) {
			if !assets.IsNotFound(err) {
				return commands.Failure{}, false
			}
			return commands.Failure{
				Category: goerrors.CategoryNotFound,
				TextCode: TextCodePageMissing,
				Message:  "page not found",
			}, true
		},
		commands.When(assets.ErrAssetTooLarge, commands.Failure{
			Category: goerrors.CategoryBadInput,
			TextCode: TextCodeAssetTooLarge,
			Message:  "asset too large",
		}),
		commands.When(assets.ErrUnsupportedType, commands.Failure{
			Category: goerrors.CategoryBadInput,
			TextCode: TextCodeAssetUnsupported,
			Message:  "asset type not allowed",
		}),
	)
)
