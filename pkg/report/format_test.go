package report

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{60, "60.00"},
		{3_750_000, "3750000.00"},
		{-196.6, "-196.60"},
		{72.456, "72.46"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "inf"},
		{5e9, "ovf"},
		{-5e9, "ovf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in), "FormatFloat(%v)", tt.in)
	}
}

func TestParseFloat(t *testing.T) {
	v, err := ParseFloat("60.00")
	require.NoError(t, err)
	assert.Equal(t, 60.0, v)

	v, err = ParseFloat("nan")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	v, err = ParseFloat("ovf")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))

	_, err = ParseFloat("sixty")
	assert.Error(t, err)
}

func TestDecoder_RoundTrip(t *testing.T) {
	reports := []Report{
		{RPM: 60, WaterLevel: 512, Temps: []float64{71.6, 72.27}},
		{RPM: 3_750_000, WaterLevel: 0, Temps: []float64{-196.6, 70}},
		{RPM: 0, WaterLevel: 4095, Temps: []float64{0, -40}},
	}

	var buf bytes.Buffer
	for _, r := range reports {
		require.NoError(t, Format(&buf, r))
	}

	for _, probes := range []int{0, 2} {
		dec := NewDecoder(bytes.NewReader(buf.Bytes()), probes)
		for _, want := range reports {
			got, err := dec.Decode()
			require.NoError(t, err)
			assert.Equal(t, want.RPM, got.RPM)
			assert.Equal(t, want.WaterLevel, got.WaterLevel)
			assert.Equal(t, want.Temps, got.Temps)
			assert.False(t, got.Timestamp.IsZero())
		}
		_, err := dec.Decode()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestDecoder_SkipsUnknownLines(t *testing.T) {
	stream := "Devices found: 2\n" +
		"garbage without colon\n" +
		"Water Level: 7\n" + // before any block
		"RPM: 120.00\n" +
		"Water Level: 300\n" +
		"Temp sensor 0: 70.00\n" +
		"Temp sensor 1: 71.00\n"

	var lines []string
	dec := NewDecoder(strings.NewReader(stream), 2)
	dec.OnLine(func(l string) { lines = append(lines, l) })

	got, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.RPM)
	assert.Equal(t, 300, got.WaterLevel)
	assert.Equal(t, []float64{70, 71}, got.Temps)
	assert.Len(t, lines, 7)
}

func TestDecoder_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		stream string
	}{
		{"bad rpm", "RPM: fast\n"},
		{"bad water level", "RPM: 1.00\nWater Level: high\n"},
		{"bad temperature", "RPM: 1.00\nWater Level: 1\nTemp sensor 0: warm\n"},
		{"skipped sensor index", "RPM: 1.00\nWater Level: 1\nTemp sensor 1: 70.00\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.stream), 2)
			_, err := dec.Decode()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestDecoder_RecoversAfterMalformed(t *testing.T) {
	stream := "RPM: 1.00\nWater Level: oops\n" +
		"RPM: 2.00\nWater Level: 5\nTemp sensor 0: 70.00\nTemp sensor 1: 70.00\n"

	dec := NewDecoder(strings.NewReader(stream), 2)
	_, err := dec.Decode()
	require.ErrorIs(t, err, ErrMalformed)

	got, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.RPM)
	assert.Equal(t, 5, got.WaterLevel)
}

func TestDecoder_MalformedHeaderKeepsPreviousBlock(t *testing.T) {
	stream := "RPM: 1.00\nWater Level: 5\nTemp sensor 0: 70.00\n" +
		"RPM: fast\n" +
		"RPM: 3.00\nWater Level: 6\n"

	dec := NewDecoder(strings.NewReader(stream), 0)

	got, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.RPM)
	assert.Equal(t, 5, got.WaterLevel)
	assert.Equal(t, []float64{70}, got.Temps)

	_, err = dec.Decode()
	require.ErrorIs(t, err, ErrMalformed)

	got, err = dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.RPM)
	assert.Equal(t, 6, got.WaterLevel)

	_, err = dec.Decode()
	assert.ErrorIs(t, err, io.EOF)
}
