// Package config holds the docingest configuration and loads the optional
// .docingest YAML file. Values are layered as defaults, file, environment
// and finally command line flags.
package config
