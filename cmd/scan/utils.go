package scan

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/leakscan/internal/notify"
	"github.com/scan-io-git/leakscan/internal/store"
	"github.com/scan-io-git/leakscan/pkg/shared/config"
	"github.com/scan-io-git/leakscan/pkg/shared/errors"
	"github.com/scan-io-git/leakscan/pkg/shared/httpclient"
)

// resolveArtifactID returns the --artifact-id flag or, failing that, the base name
// of the artifact (or source dir) without its extension.
func resolveArtifactID(opts *RunOptionsScan) string {
	if opts.ArtifactID != "" {
		return opts.ArtifactID
	}
	if opts.SourceDir != "" {
		return filepath.Base(filepath.Clean(opts.SourceDir))
	}
	base := filepath.Base(opts.ArtifactPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// newPublisher builds the configured store together with its hooks.
func newPublisher(cfg *config.Config, logger hclog.Logger) (*store.Publisher, error) {
	staging := store.StagingDirFor(config.GetTempFolder(cfg))

	var (
		st    store.Store
		hooks []store.Hook
	)
	switch cfg.Store.Type {
	case config.StoreTypeS3:
		s3Store, err := store.NewS3(cfg.Store.S3.Bucket, cfg.Store.S3.Region, cfg.Store.S3.Prefix, staging)
		if err != nil {
			return nil, errors.Wrap(errors.ErrStore, "%w", err)
		}
		st = s3Store
		if config.IsHistoryEnabled(cfg) {
			logger.Warn("history is only kept for the fs store, ignoring", "store", cfg.Store.Type)
		}
	default:
		results := config.GetResultsFolder(cfg)
		st = store.NewFS(results, staging, logger.Named("store"))
		if config.IsHistoryEnabled(cfg) {
			hooks = append(hooks, store.NewHistory(results, cfg.History.AuthorName, cfg.History.AuthorEmail))
		}
	}

	if cfg.Notify.WebhookURL != "" {
		client := httpclient.InitializeRestyClient(logger.Named("notify"), cfg)
		hooks = append(hooks, notify.NewWebhook(client, cfg.Notify.WebhookURL))
	}
	return store.NewPublisher(st, hooks...), nil
}
