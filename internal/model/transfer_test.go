package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransferStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    TransferStatus
		wantErr bool
	}{
		{in: "pending", want: StatusPending},
		{in: " Confirmed ", want: StatusConfirmed},
		{in: "failed", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransferStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusRankOrdersLifecycle(t *testing.T) {
	assert.Less(t, StatusPending.Rank(), StatusConfirmed.Rank())
	assert.Zero(t, TransferStatus("failed").Rank())
	assert.False(t, TransferStatus("failed").Valid())
}
