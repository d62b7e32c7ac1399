// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/yamato/internal/errors"
)

func TestPickAddress(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		want       string
		wantErr    bool
	}{
		{
			name: "first usable wins",
			candidates: []Candidate{
				{Iface: "lo", IP: net.ParseIP("127.0.0.1"), Up: true},
				{Iface: "eth0", IP: net.ParseIP("169.254.1.1"), Up: true},
				{Iface: "eth1", IP: net.ParseIP("10.0.0.5"), Up: false},
				{Iface: "eth2", IP: net.ParseIP("fe80::1"), Up: true},
				{Iface: "eth3", IP: net.ParseIP("192.168.1.20"), Up: true},
				{Iface: "eth4", IP: net.ParseIP("192.168.1.21"), Up: true},
			},
			want: "192.168.1.20",
		},
		{
			name:       "none usable",
			candidates: []Candidate{{Iface: "lo", IP: net.ParseIP("127.0.0.1"), Up: true}},
			wantErr:    true,
		},
		{name: "empty", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PickAddress(tt.candidates)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.KindNotFound, errors.GetKind(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
