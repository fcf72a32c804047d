// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/codeactual/rerun/cmd/rerun/root"
)

func main() {
	if err := root.NewCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rerun: %s\n", err)
		os.Exit(1)
	}
}
