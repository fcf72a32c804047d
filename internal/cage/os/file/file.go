// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package file

import (
	"os"

	"github.com/pkg/errors"
)

// Exists returns whether the file/directory exists and, if so, its os.FileInfo.
func Exists(name string) (bool, os.FileInfo, error) {
	fi, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, errors.Wrapf(err, "failed to stat [%s]", name)
	}
	return true, fi, nil
}

// AppendString writes the string to the end of the file, creating it if needed.
func AppendString(name, s string) error {
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open [%s] for append", name)
	}
	if _, err = f.WriteString(s); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to append to [%s]", name)
	}
	return errors.Wrapf(f.Close(), "failed to close [%s]", name)
}
