package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAbsolutePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	path, err := GetAbsolutePath("profiles/patient.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "profiles", "patient.json"), path)

	abs := filepath.Join(wd, "x.json")
	path, err = GetAbsolutePath(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, path)
}

func TestPointers(t *testing.T) {
	assert.Equal(t, "a", *StringPtr("a"))
	assert.Equal(t, 1, *IntPtr(1))
}
