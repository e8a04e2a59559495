package config

import (
	_ "embed"
)

//go:embed example.yaml
var example []byte

// Example returns a fully commented configuration file equivalent to Default.
func Example() []byte {
	return append([]byte(nil), example...)
}
