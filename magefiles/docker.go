package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Container image constants.
const (
	dockerImageName = "slate"
	dockerfile      = "magefiles/Dockerfile"
)

// Image groups the server container image targets.
type Image mg.Namespace

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// imageRef returns the full image reference (name:tag).
func imageRef() string {
	return dockerImageName + ":" + version()
}

// Build builds the server image from magefiles/Dockerfile. The build
// context is the repo root.
func (Image) Build() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	fmt.Fprintln(os.Stderr, "Building container image", imageRef())
	cmd := exec.Command(rt, "build",
		"-t", imageRef(),
		"--build-arg", "LDFLAGS="+ldflags(),
		"-f", dockerfile,
		".")
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Remove deletes the server image. A missing image is not an error.
func (Image) Remove() error {
	rt := containerRuntime()
	if rt == "" {
		return nil
	}
	_ = exec.Command(rt, "rmi", imageRef()).Run()
	return nil
}
