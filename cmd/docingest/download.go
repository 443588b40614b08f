package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/downloader"
	"github.com/nao1215/docingest/internal/store"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Fetch crawled URLs into the content store",
		Long: `Download fetches every URL of <workdir>/urls.json in order, sending the
stored ETag and Last-Modified validators. New content is stored once under
its SHA-256 hash; age-verification redirects and HTML pages returned for
documents are recorded as blocked instead of being stored.

Failed fetches leave the ledger untouched and are retried on the next run.
An interrupted download does not save the ledger.`,
		Args: cobra.NoArgs,
		RunE: runDownloadCmd,
	}
	addHTTPFlags(cmd)
	return cmd
}

func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	urls, err := a.loadURLs()
	if err != nil {
		return err
	}
	rs, err := a.loadState()
	if err != nil {
		return err
	}
	d, err := a.newDownloader()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sum, err := d.Run(ctx, urls, rs)
	if err != nil {
		return err
	}
	if err := a.saveState(rs); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Downloaded %d URLs: %d stored, %d unchanged, %d not modified, %d blocked, %d failed\n",
		sum.Total, sum.Stored, sum.Unchanged, sum.NotModified, sum.Blocked, sum.Failed)
	return nil
}

// newDownloader builds a downloader writing into the work directory's store.
func (a *app) newDownloader() (*downloader.Downloader, error) {
	f, limiter, err := a.newFetcher()
	if err != nil {
		return nil, err
	}
	return a.newDownloaderWith(f, limiter)
}

func (a *app) newDownloaderWith(f downloader.Fetcher, limiter downloader.Waiter) (*downloader.Downloader, error) {
	st, err := store.New(a.cfg.DownloadDir())
	if err != nil {
		return nil, err
	}
	return downloader.New(f, limiter, st,
		downloader.WithAgeVerifyMarkers(a.cfg.AgeVerifyMarkers),
		downloader.WithDocumentExtensions(a.cfg.AllowedExtensions),
		downloader.WithLogger(a.logger),
		downloader.WithMetrics(a.metrics),
	), nil
}
