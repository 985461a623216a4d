package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "IND", "IND"},
		{"true", true, "Yes"},
		{"false", false, "No"},
		{"whole float keeps decimal", 20635.0, "20635.0"},
		{"fractional float", 6.5, "6.5"},
		{"int", 42, "42"},
		{"json number integer", json.Number("7"), "7"},
		{"json number decimal", json.Number("7.0"), "7.0"},
		{"time", time.Date(2003, 5, 4, 0, 0, 0, 0, time.UTC), "2003-05-04"},
		{"list", []any{"IELTS", "TOEFL"}, "IELTS, TOEFL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestParseYesNo(t *testing.T) {
	t.Parallel()

	for _, in := range []any{true, "Yes", "yes", "true"} {
		b, ok := ParseYesNo(in)
		assert.True(t, ok, "%v", in)
		assert.True(t, b, "%v", in)
	}
	for _, in := range []any{false, "No", "false"} {
		b, ok := ParseYesNo(in)
		assert.True(t, ok, "%v", in)
		assert.False(t, b, "%v", in)
	}
	_, ok := ParseYesNo("Study")
	assert.False(t, ok)
	_, ok = ParseYesNo(nil)
	assert.False(t, ok)
}

func TestIsPresent(t *testing.T) {
	t.Parallel()

	assert.False(t, IsPresent(nil))
	assert.False(t, IsPresent("   "))
	assert.False(t, IsPresent([]any{}))
	assert.True(t, IsPresent(false))
	assert.True(t, IsPresent(0.0))
	assert.True(t, IsPresent("x"))
}

func TestIsExplicitFalse(t *testing.T) {
	t.Parallel()

	assert.True(t, IsExplicitFalse(false))
	assert.True(t, IsExplicitFalse("No"))
	assert.False(t, IsExplicitFalse(nil))
	assert.False(t, IsExplicitFalse(true))
	assert.False(t, IsExplicitFalse("maybe"))
}

func TestApplicantData_Text(t *testing.T) {
	t.Parallel()

	d := ApplicantData{"gic_amount": 20635.0, "blank": "", "flag": false}

	s, ok := d.Text("gic_amount")
	require.True(t, ok)
	assert.Equal(t, "20635.0", s)

	_, ok = d.Text("blank")
	assert.False(t, ok)
	_, ok = d.Text("missing")
	assert.False(t, ok)

	s, ok = d.Text("flag")
	require.True(t, ok)
	assert.Equal(t, "No", s)
}

func TestToFloat(t *testing.T) {
	t.Parallel()

	f, ok := ToFloat("20,635.00")
	require.True(t, ok)
	assert.InDelta(t, 20635.0, f, 0.001)

	_, ok = ToFloat("abc")
	assert.False(t, ok)
}

func TestParseFormType(t *testing.T) {
	t.Parallel()

	ft, err := ParseFormType("imm1294")
	require.NoError(t, err)
	assert.Equal(t, FormIMM1294, ft)

	_, err = ParseFormType("IMM0000")
	assert.Error(t, err)
}

func TestExtraction_Text(t *testing.T) {
	t.Parallel()

	e := &Extraction{Lines: []Line{{Text: "Passport", Confidence: 90}, {Text: "No: A1234567", Confidence: 80}}}
	assert.Equal(t, "Passport No: A1234567", e.Text())
	assert.InDelta(t, 85.0, e.AverageConfidence(), 0.001)

	var nilExt *Extraction
	assert.Equal(t, "", nilExt.Text())
}
