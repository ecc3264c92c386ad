// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fakeexec lets unit tests run the test binary itself as a fake
// external tool (texttest, git, a GUI binary).
package fakeexec

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// auxMainNameEnv names the auxiliary main function to run.
	auxMainNameEnv = "DAILYTEST_AUX_MAIN_NAME"

	// auxMainValueEnv carries the JSON parameter of the auxiliary main.
	auxMainValueEnv = "DAILYTEST_AUX_MAIN_VALUE"
)

var knownNames = map[string]struct{}{}

// AuxMain is an auxiliary main function taking a parameter of type T.
type AuxMain[T any] struct {
	name string
}

// NewAuxMain registers an auxiliary main function. It must be called in a
// top-level variable initialization:
//
//	var fakeTexttest = fakeexec.NewAuxMain("texttest", func(p params) { ... })
//
// If the current process was started for this auxiliary main, f is called
// and the process exits with status 0 unless f exits by itself. name must be
// unique within the executable.
func NewAuxMain[T any](name string, f func(T)) *AuxMain[T] {
	if _, found := knownNames[name]; found {
		panic(fmt.Sprintf("fakeexec.NewAuxMain: multiple registrations for %q", name))
	}
	knownNames[name] = struct{}{}

	if os.Getenv(auxMainNameEnv) != name {
		return &AuxMain[T]{name: name}
	}
	var v T
	if err := json.Unmarshal([]byte(os.Getenv(auxMainValueEnv)), &v); err != nil {
		panic(fmt.Sprintf("fakeexec.AuxMain: %s: failed to unmarshal parameter: %v", name, err))
	}
	f(v)
	os.Exit(0)
	panic("unreachable")
}

// Params returns what is needed to start a subprocess running the auxiliary
// main with v.
func (a *AuxMain[T]) Params(v T) (*AuxMainParams, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	p, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &AuxMainParams{executable: exe, name: a.name, param: string(p)}, nil
}

// AuxMainParams describes how to start an auxiliary main.
type AuxMainParams struct {
	executable string
	name       string
	param      string
}

// Executable returns the path of the current executable.
func (a *AuxMainParams) Executable() string {
	return a.executable
}

// Vars returns the environment variables selecting the auxiliary main as a
// map, convenient for merging into an environment.
func (a *AuxMainParams) Vars() map[string]string {
	return map[string]string{
		auxMainNameEnv:  a.name,
		auxMainValueEnv: a.param,
	}
}

// Envs returns Vars in KEY=VALUE form for os/exec.Cmd.Env.
func (a *AuxMainParams) Envs() []string {
	var envs []string
	for k, v := range a.Vars() {
		envs = append(envs, k+"="+v)
	}
	return envs
}
