package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/fs"
)

func TestVerifier_VerifyOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	verifier := fs.NewVerifier()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "out1.o"), []byte("content"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "out2.o"), []byte("content"), 0o600))

	exists, err := verifier.VerifyOutputs(tmpDir, []string{"out1.o", "out2.o"})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = verifier.VerifyOutputs(tmpDir, []string{"out1.o", "missing.o"})
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = verifier.VerifyOutputs(t.TempDir(), []string{filepath.Join(tmpDir, "out1.o")})
	require.NoError(t, err)
	assert.True(t, exists, "absolute outputs ignore root")
}
