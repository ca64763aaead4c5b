// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build !linux

package health

import "github.com/shirou/gopsutil/v3/host"

func kernelRelease() string {
	v, err := host.KernelVersion()
	if err != nil || v == "" {
		return "unknown"
	}
	return v
}
