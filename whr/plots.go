package main

import (
	"github.com/itohio/gowhr/pkg/history"
	"github.com/itohio/gowhr/pkg/scope"
)

// rpmAverage is the number of reports in the RPM moving average.
const rpmAverage = 5

// plotTraces maps a monitor snapshot onto the four dashboard plots: RPM, water
// level against temperatures, water level alone and temperatures alone.
func plotTraces(snap history.Snapshot) [4][]scope.Trace {
	var out [4][]scope.Trace

	out[0] = []scope.Trace{
		{Name: history.SignalRPM, Points: snap.RPM},
		{Name: "Average", Points: history.MovingAverage(nil, snap.RPM, rpmAverage)},
	}

	water := scope.Trace{Name: history.SignalWaterLevel, Points: snap.WaterLevel}
	temps := make([]scope.Trace, len(snap.Temps))
	for i, pts := range snap.Temps {
		temps[i] = scope.Trace{Name: history.TempSignal(i), Points: pts}
	}

	out[1] = append([]scope.Trace{water}, temps...)
	out[2] = []scope.Trace{water}
	out[3] = temps

	return out
}
