package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// textbookProfile is the three-agent case with allocation
// alice [.5 .25 .25], bob [.5 0 .5], carol [0 .75 .25].
const textbookProfile = `
version: "1"
items:
  - {id: a, label: Alpha}
  - {id: b, label: Beta}
  - {id: c, label: Gamma}
agents:
  - {id: alice, ranking: [a, b, c]}
  - {id: bob, positions: [1, 3, 2]}
  - {id: carol, ranking: [b, a, c]}
`

func writeProfile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
