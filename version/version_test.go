package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionInfo(t *testing.T) {
	info := Get()
	require.True(t, strings.HasPrefix(info.Version, BeacondSemVer))
	if GitCommit == "" {
		require.Equal(t, BeacondSemVer, info.Version)
	} else {
		require.Equal(t, BeacondSemVer+"-"+GitCommit, info.Version)
	}
}
