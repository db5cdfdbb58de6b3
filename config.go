package mdpages

import "github.com/goliatone/go-mdpages/internal/runtimeconfig"

var (
	ErrStorageDriverUnknown       = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid            = runtimeconfig.ErrCacheTTLInvalid
	ErrSlugMaxLengthInvalid       = runtimeconfig.ErrSlugMaxLengthInvalid
	ErrSlugFallbackUnknown        = runtimeconfig.ErrSlugFallbackUnknown
	ErrSlugRetriesInvalid         = runtimeconfig.ErrSlugRetriesInvalid
	ErrAssetsDirRequired          = runtimeconfig.ErrAssetsDirRequired
	ErrAssetsMaxBytesInvalid      = runtimeconfig.ErrAssetsMaxBytesInvalid
	ErrPagesMaxBytesInvalid       = runtimeconfig.ErrPagesMaxBytesInvalid
	ErrDashboardLimitInvalid      = runtimeconfig.ErrDashboardLimitInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrServerAddressRequired      = runtimeconfig.ErrServerAddressRequired
	ErrSessionKeyRequired         = runtimeconfig.ErrSessionKeyRequired
	ErrSessionKeyTooShort         = runtimeconfig.ErrSessionKeyTooShort
	ErrAdminCredentialsIncomplete = runtimeconfig.ErrAdminCredentialsIncomplete
	ErrCommandTimeoutInvalid      = runtimeconfig.ErrCommandTimeoutInvalid
)

type (
	Config         = runtimeconfig.Config
	CacheConfig    = runtimeconfig.CacheConfig
	SlugConfig     = runtimeconfig.SlugConfig
	MarkdownConfig = runtimeconfig.MarkdownConfig
	AssetsConfig   = runtimeconfig.AssetsConfig
	PagesConfig    = runtimeconfig.PagesConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	ServerConfig   = runtimeconfig.ServerConfig
	AdminConfig    = runtimeconfig.AdminConfig
	CommandsConfig = runtimeconfig.CommandsConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
