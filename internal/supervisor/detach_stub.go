// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !unix

package supervisor

import "os/exec"

func detach(cmd *exec.Cmd) {}
