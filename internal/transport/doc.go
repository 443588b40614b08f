// Package transport builds the HTTP clients used by the crawl and download stages.
//
// Clients connect directly by default. An optional SOCKS5 proxy can be set for
// networks where outbound traffic must leave through a gateway.
package transport
