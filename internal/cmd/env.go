// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"os"
)

const passwordEnv = "MAPFS_PASSWORD"

// EnvPassword returns the password for all containers from the environment.
func EnvPassword() string {
	return os.Getenv(passwordEnv)
}
