//go:build tools
// +build tools

// Package tools tracks tool dependencies for the project.
// This ensures that `go mod tidy` doesn't remove tool dependencies.
package tools

import (
	_ "github.com/arch-go/arch-go"
)
