package types

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMaterialCode_IsValid(t *testing.T) {
	tests := []struct {
		code MaterialCode
		want bool
	}{
		{"06.123.456", true},
		{"00.000.000", true},
		{"6.123.456", false},
		{"06.123.4567", false},
		{"06-123-456", false},
		{" 06.123.456", false},
		{"", false},
		{"AB.CDE.FGH", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.IsValid())
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, MaterialCode("06.123.456"), NormalizeCode("  06.123.456\t"))
	assert.Equal(t, MaterialCode("0612"), NormalizeCode("0612"))
}

func TestRawRow_Cell(t *testing.T) {
	row := RawRow{"a", "b"}
	assert.Equal(t, "b", row.Cell(1))
	assert.Equal(t, "", row.Cell(6))
	assert.Equal(t, "", row.Cell(-1))
}

func TestCanonicalRecord_Values(t *testing.T) {
	rec := CanonicalRecord{
		Code:        "06.123.456",
		Description: "Gasket",
		Balance:     decimal.RequireFromString("1239.50"),
		Unit:        "UN",
		MRP:         "M1",
		Class:       "C1",
		GeneratedAt: time.Date(2025, 3, 7, 9, 5, 1, 0, time.UTC),
	}

	assert.Equal(t,
		[]string{"06.123.456", "Gasket", "1239.5", "UN", "M1", "C1", "07/03/2025 09:05:01"},
		rec.Values())
	assert.Len(t, rec.Values(), len(OutputColumns))
}

func TestInputError_Kinds(t *testing.T) {
	missing := MissingInput(InputReference, "ref.xlsx", os.ErrNotExist)
	assert.True(t, errors.Is(missing, ErrInputMissing))
	assert.True(t, errors.Is(missing, os.ErrNotExist))
	assert.False(t, errors.Is(missing, ErrUnexpectedShape))
	assert.Contains(t, missing.Error(), "reference catalog")

	shape := UnexpectedShape(InputRawExport, "raw.xlsx", nil)
	assert.True(t, errors.Is(shape, ErrUnexpectedShape))

	var inputErr *InputError
	assert.True(t, errors.As(error(shape), &inputErr))
	assert.Equal(t, "raw.xlsx", inputErr.Path)
}
