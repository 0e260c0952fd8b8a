//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the tests that need no GPU or window.
func (Test) Unit() error {
	packages := []string{
		"./engine/core/...",
		"./engine/containers/...",
		"./engine/math/...",
		"./engine/config/...",
		"./engine/scene/...",
		"./engine/resources/...",
		"./engine/renderer/...",
		"./engine/systems/...",
		"./engine/assets/...",
	}
	args := append([]string{"test"}, packages...)
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
