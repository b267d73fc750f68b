// Package main provides build targets for slate using Mage.
//
// Usage:
//
//	mage build          Compile the slate binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests in short mode
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile to bin/coverage.out
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage clean          Remove build artifacts
//	mage install        Install slate to GOPATH/bin
//	mage serve          Build and run the HTTP server
//	mage image:build    Build the server container image
//	mage stats:table    Print code lines per package and the test/prod ratio
//	mage stats:json     Print the same counts as one JSON record
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "slate"
	binaryDir  = "bin"
	cmdDir     = "./cmd/slate"
	versionVar = "github.com/mesh-intelligence/slate/internal/cli.Version"
)

// version returns the release tag for the build, taken from SLATE_VERSION
// or git describe. Untagged trees report a dev version.
func version() string {
	if v := os.Getenv("SLATE_VERSION"); v != "" {
		return strings.TrimPrefix(v, "v")
	}
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "0.1.0-dev"
	}
	return strings.TrimPrefix(out, "v")
}

func ldflags() string {
	return fmt.Sprintf("-s -w -X %s=%s", versionVar, version())
}

// Build compiles the slate binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(),
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Serve builds slate and runs the HTTP server on the configured address.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "serve")
}
