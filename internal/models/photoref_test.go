package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhotoRef(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind PhotoRefKind
	}{
		{"empty", "", PhotoNone},
		{"local", "local::site1_p1_123", PhotoLocal},
		{"remote", "https://cdn.example.com/reports/l1/p1.jpg", PhotoRemote},
		{"inline", "data:image/jpeg;base64,AAAA", PhotoInline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParsePhotoRef(tt.in)
			assert.Equal(t, tt.kind, ref.Kind())
			assert.Equal(t, tt.in, ref.String())
		})
	}
}

func TestPhotoRef_Accessors(t *testing.T) {
	id, ok := LocalPhoto("blob1").BlobID()
	require.True(t, ok)
	assert.Equal(t, "blob1", id)

	_, ok = RemotePhoto("https://x/y.jpg").BlobID()
	assert.False(t, ok)

	url, ok := RemotePhoto("https://x/y.jpg").URL()
	require.True(t, ok)
	assert.Equal(t, "https://x/y.jpg", url)

	assert.True(t, PhotoRef{}.IsZero())
	assert.False(t, LocalPhoto("b").IsZero())
}

func TestPhotoRef_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Photo PhotoRef `json:"photo"`
	}

	in := wrapper{Photo: LocalPhoto("site1_p1_42")}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"photo":"local::site1_p1_42"}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
