package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

func TestExactlyOne(t *testing.T) {
	tests := []struct {
		name      string
		sources   []bool
		wantErr   string
		wantValue any
	}{
		{name: "one of two", sources: []bool{false, true}},
		{name: "single", sources: []bool{true}},
		{name: "none", sources: []bool{false, false}, wantErr: "configuration error in resource: none set"},
		{name: "no sources", sources: nil, wantErr: "none set"},
		{name: "two", sources: []bool{true, true}, wantErr: "configuration error in resource (value: 2): many set", wantValue: 2},
		{name: "three", sources: []bool{true, true, true}, wantErr: "(value: 3)", wantValue: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExactlyOne("resource", "none set", "many set", tt.sources...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, xoerrors.ErrConfig))

			var cfgErr *xoerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantValue, cfgErr.Value)
		})
	}
}
