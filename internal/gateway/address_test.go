package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/botgate/internal/domain"
)

func TestNormalizeRecipient(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare digits", raw: "6281100011", want: "6281100011@c.us"},
		{name: "already canonical", raw: "6281100011@c.us", want: "6281100011@c.us"},
		{name: "formatted number", raw: "+1 (234) 567-8900", want: "12345678900@c.us"},
		{name: "dotted number", raw: "62.811.000.11", want: "6281100011@c.us"},
		{name: "letters only", raw: "not-a-number", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "suffix without digits", raw: "@c.us", wantErr: true},
		{name: "wrong domain", raw: "6281100011@g.us", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRecipient(tt.raw, DefaultCanonicalSuffix)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsGroupAddress(t *testing.T) {
	assert.True(t, IsGroupAddress("12036304@g.us"))
	assert.False(t, IsGroupAddress("6281100011@c.us"))
}
