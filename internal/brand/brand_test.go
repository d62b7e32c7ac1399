// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package brand

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if WorkerTag != "ss-server" {
		t.Errorf("WorkerTag = %q, want ss-server", WorkerTag)
	}
	if PidmapSuffix != ".pidmap" {
		t.Errorf("PidmapSuffix = %q, want .pidmap", PidmapSuffix)
	}
}

func TestBanner(t *testing.T) {
	if !strings.HasPrefix(Banner(), Name+" ") {
		t.Errorf("Banner() = %q, should start with brand name", Banner())
	}
}
