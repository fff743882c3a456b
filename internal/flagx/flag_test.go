package flagx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value form",
			args:    []string{"-key", "abc", "-other", "x"},
			allowed: []string{"-key"},
			want:    []string{"-key", "abc"},
		},
		{
			name:    "equals form",
			args:    []string{"-provider=memory", "-other=x"},
			allowed: []string{"-provider"},
			want:    []string{"-provider=memory"},
		},
		{
			name:    "flag followed by another flag keeps no value",
			args:    []string{"-key", "-provider", "memory"},
			allowed: []string{"-key", "-provider"},
			want:    []string{"-key", "-provider", "memory"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "1"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FilterArgs(tc.args, tc.allowed))
		})
	}
}
