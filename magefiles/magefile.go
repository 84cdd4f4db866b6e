//go:build mage

package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests.
func Test() error {
	args := []string{"test", "./..."}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunV("go", args...)
}

// Build compiles srconv into bin/.
func Build() error {
	mg.Deps(Vet)
	out := filepath.Join("bin", "srconv")
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	fmt.Println("Building", out)
	return sh.RunV("go", "build", "-o", out, "./cmd/srconv")
}

// Windows cross-compiles srconv for the platform the crunchers run on.
func Windows() error {
	env := map[string]string{"GOOS": "windows", "GOARCH": "amd64"}
	return sh.RunWithV(env, "go", "build", "-o", filepath.Join("bin", "srconv.exe"), "./cmd/srconv")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
