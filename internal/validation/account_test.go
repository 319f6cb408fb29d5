package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("  0xFE3B557E8Fb62b89F4916B721be55cEb828dBd73 ")
	require.NoError(t, err)
	assert.Equal(t, "0xfe3b557e8fb62b89f4916b721be55ceb828dbd73", got)

	_, err = NormalizeAddress("")
	assert.Error(t, err)

	_, err = NormalizeAddress("0x1234")
	assert.Error(t, err)

	assert.Error(t, ValidateAddress(42))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{input: "200", want: 200},
		{input: " 1 ", want: 1},
		{input: "0", wantErr: true},
		{input: "-5", wantErr: true},
		{input: "1.5", wantErr: true},
		{input: "", wantErr: true},
		{input: "9223372036854775808", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
