// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package viper

import (
	std_viper "github.com/spf13/viper"

	"github.com/pkg/errors"
)

// ReadInConfig loads the named file into the viper instance.
//
// It exists to centralize the SetConfigFile/ReadInConfig pairing and error
// wrapping which every config-reading call site would otherwise repeat.
func ReadInConfig(v *std_viper.Viper, name string) error {
	v.SetConfigFile(name)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file [%s]", name)
	}
	return nil
}
