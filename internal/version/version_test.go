package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	prev := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = prev[0], prev[1], prev[2] })

	Version, Commit, Date = "v1.4.0", "abc1234", "2025-06-01"
	assert.Equal(t, "v1.4.0 (commit: abc1234, built: 2025-06-01)", String())
}
