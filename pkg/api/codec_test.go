package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecEmptyBody(t *testing.T) {
	var req ListSplitsRequest
	require.NoError(t, Codec{}.Unmarshal(nil, &req))
}

func TestCodecFieldNames(t *testing.T) {
	data, err := Codec{}.Marshal(&ItemSelection{Index: 2, ShareCount: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":2,"share_count":3}`, string(data))

	var sel ItemSelection
	require.NoError(t, Codec{}.Unmarshal([]byte(`{"index":1,"quantity":0.5}`), &sel))
	assert.Equal(t, ItemSelection{Index: 1, Quantity: 0.5}, sel)
}

func TestCodecRejectsMalformed(t *testing.T) {
	var req QuoteRequest
	assert.Error(t, Codec{}.Unmarshal([]byte(`{"code":`), &req))
	assert.Equal(t, "json", Codec{}.Name())
}
