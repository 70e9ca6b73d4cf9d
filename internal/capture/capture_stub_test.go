//go:build !gocv
// +build !gocv

package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenWithoutTag(t *testing.T) {
	cam, err := Open("0")
	require.Error(t, err)
	require.Nil(t, cam)
}
