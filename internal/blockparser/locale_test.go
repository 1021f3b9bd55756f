package blockparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocaleNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1.234,50", "1234.5", true},
		{"5,00", "5", true},
		{"100", "100", true},
		{"1.000.000", "1000000", true},
		{"-12,5", "-12.5", true},
		{" 7,25 ", "7.25", true},
		{"0,001", "0.001", true},
		{"", "0", false},
		{"   ", "0", false},
		{"abc", "0", false},
		{"12a", "0", false},
		{"1,2,3", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLocaleNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
