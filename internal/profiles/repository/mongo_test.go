package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDecodeData_PlainJSONValues(t *testing.T) {
	in := map[string]interface{}{
		"first_name": "Ann",
		"major":      []string{"Biology", "Chemistry"},
		"minor":      []string{},
		"year":       "2027",
		"nested":     map[string]interface{}{"k": "v"},
	}
	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	out, err := decodeData(raw)
	require.NoError(t, err)
	require.Equal(t, "Ann", out["first_name"])
	require.Equal(t, []interface{}{"Biology", "Chemistry"}, out["major"])
	require.Equal(t, []interface{}{}, out["minor"])
	require.Equal(t, map[string]interface{}{"k": "v"}, out["nested"])
}

func TestDecodeData_Empty(t *testing.T) {
	out, err := decodeData(nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
