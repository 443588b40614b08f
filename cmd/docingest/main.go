// Package main provides the entry point for the docingest CLI.
//
// docingest crawls public document listings, downloads the linked files
// into a content-addressed store and turns the PDFs into chunked text
// that is loaded into a corpus database and a search index.
//
// Usage:
//
//	docingest crawl --seeds seeds.txt
//	docingest download
//	docingest process
//	docingest load-db
//	docingest run --seeds seeds.txt
//
// See --help for all available options.
package main

func main() {
	Execute()
}
