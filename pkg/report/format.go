package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// Line labels of a report block.
const (
	KeyRPM        = "RPM"
	KeyWaterLevel = "Water Level"
	KeyTempPrefix = "Temp sensor "
)

// maxPrintable is the largest magnitude the device prints as a number.
const maxPrintable = 4294967040.0

// Format writes rep as a text block:
//
//	RPM: 60.00
//	Water Level: 512
//	Temp sensor 0: 71.60
//	Temp sensor 1: 72.27
func Format(w io.Writer, rep Report) error {
	if _, err := fmt.Fprintf(w, "%s: %s\r\n%s: %d\r\n", KeyRPM, FormatFloat(rep.RPM), KeyWaterLevel, rep.WaterLevel); err != nil {
		return err
	}
	for i, t := range rep.Temps {
		if _, err := fmt.Fprintf(w, "%s%d: %s\r\n", KeyTempPrefix, i, FormatFloat(t)); err != nil {
			return err
		}
	}
	return nil
}

// FormatFloat prints v with two decimals, or nan, inf or ovf for values
// that do not fit.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 0):
		return "inf"
	case v > maxPrintable, v < -maxPrintable:
		return "ovf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ParseFloat is the inverse of FormatFloat. ovf parses as +Inf.
func ParseFloat(s string) (float64, error) {
	switch s {
	case "nan":
		return math.NaN(), nil
	case "inf", "ovf":
		return math.Inf(1), nil
	}
	return strconv.ParseFloat(s, 64)
}
