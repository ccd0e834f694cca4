package app

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: swaps package-level readBuildInfo.
func TestBuildVersion_FallsBackToVCSStamp(t *testing.T) {
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		}}, true
	}
	assert.Equal(t, "dev (commit: 0123456789ab, built: 2026-03-01T10:00:00Z)", BuildVersion())

	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	assert.Equal(t, "dev (commit: unknown, built: unknown)", BuildVersion())
}
