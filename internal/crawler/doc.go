// Package crawler discovers candidate document URLs on seed listing pages.
//
// # Flow
//
// Seeds are visited one at a time. Each seed is rate limited, fetched without
// validators, and parsed for <a href> values. Every href is resolved against
// the seed's final URL (after redirects), and the absolute URL is kept when
// it passes the Filter:
//   - scheme is http or https
//   - lower-cased host is in the allowed host set
//   - path contains none of the blocked substrings
//   - lower-cased path ends with an allowed extension, when any are set
//
// Links are deduplicated by exact string. No normalization happens, so two
// URLs that differ only in query order or fragment are both kept.
//
// A seed that fails to fetch is logged and skipped; it never aborts the crawl.
//
// # Usage
//
//	c := crawler.New(fetcher, ratelimit.New(time.Second))
//	urls, err := c.Crawl(ctx, seeds)
package crawler
