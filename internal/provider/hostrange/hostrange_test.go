// SPDX-License-Identifier: MPL-2.0

package hostrange

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand_PlainHostname_ReturnedUnchanged(t *testing.T) {
	got, err := Expand("db.internal.example.com")
	require.NoError(t, err)
	require.Equal(t, []string{"db.internal.example.com"}, got)
}

func TestExpand_PlainIP_ReturnedUnchanged(t *testing.T) {
	got, err := Expand("192.168.1.42")
	require.NoError(t, err)
	require.Equal(t, []string{"192.168.1.42"}, got)
}

func TestExpand_LastOctetRange(t *testing.T) {
	got, err := Expand("192.168.1.1-3")
	require.NoError(t, err)
	require.Equal(t, []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"}, got)
}

func TestExpand_CommaList(t *testing.T) {
	got, err := Expand("10.0.0.1,5,9")
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.1", "10.0.0.5", "10.0.0.9"}, got)
}

func TestExpand_MultiOctetRangeCrossProduct(t *testing.T) {
	got, err := Expand("10.0.0-1.1-2")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.2", "10.0.1.1", "10.0.1.2"}, got)
}

func TestExpand_RangeOnNonDottedQuad_Errors(t *testing.T) {
	_, err := Expand("host-1,host-2")
	require.Error(t, err)
	var invalid *ErrInvalidRange
	require.ErrorAs(t, err, &invalid)
}

func TestExpand_OutOfBoundsOctet_Errors(t *testing.T) {
	_, err := Expand("10.0.0.1-300")
	require.Error(t, err)
}

func TestExpand_BackwardsRange_Errors(t *testing.T) {
	_, err := Expand("10.0.0.10-5")
	require.Error(t, err)
}
