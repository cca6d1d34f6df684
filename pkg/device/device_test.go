package device

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 115200, 100, 2)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.Equal(t, 2, dev.probes)
	assert.NotNil(t, dev.Reports())
	assert.NotNil(t, dev.Lines())
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, 2)
	assert.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())
}

func TestSerial_ConnectMissingPort(t *testing.T) {
	dev := New("/dev/does-not-exist-gowhr", 0, 0, 2)
	err := dev.Connect()
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}

func TestStream_DecodesBlocks(t *testing.T) {
	input := "booting\r\n" +
		"RPM: 60.00\r\nWater Level: 512\r\nTemp sensor 0: 71.60\r\nTemp sensor 1: 72.27\r\n" +
		"RPM: abc\r\n" +
		"RPM: 0.00\r\nWater Level: 0\r\nTemp sensor 0: -196.60\r\nTemp sensor 1: 70.00\r\n"

	s := newStream(10)
	s.run(context.Background(), strings.NewReader(input), 2)

	var reports []float64
	for rep := range s.reports {
		require.Len(t, rep.Temps, 2)
		reports = append(reports, rep.RPM)
	}
	assert.Equal(t, []float64{60, 0}, reports)

	var lines []string
	for line := range s.lines {
		lines = append(lines, line)
	}
	assert.Len(t, lines, 10)
	assert.Equal(t, "booting", lines[0])
	assert.Equal(t, "RPM: abc", lines[5])

	select {
	case <-s.done:
	default:
		t.Fatal("stream not marked done")
	}
}

func TestStream_DropsWhenFull(t *testing.T) {
	block := "RPM: 1.00\r\nWater Level: 1\r\n"
	s := newStream(1)
	s.run(context.Background(), strings.NewReader(strings.Repeat(block, 5)), 0)

	n := 0
	for range s.reports {
		n++
	}
	assert.Equal(t, 1, n)
}
