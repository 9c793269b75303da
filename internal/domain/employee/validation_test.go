package employee

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCLABE(t *testing.T) {
	// 002010077777777771 is the published CLABE example (Banamex).
	require.NoError(t, ValidateCLABE("002010077777777771"))

	require.Error(t, ValidateCLABE(""))
	require.Error(t, ValidateCLABE("00201007777777777"))
	require.Error(t, ValidateCLABE("002010077777777772"))
	require.Error(t, ValidateCLABE("00201007777777777X"))
}
