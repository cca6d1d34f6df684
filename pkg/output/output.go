// Package output defines sinks for report text blocks.
package output

import "github.com/itohio/gowhr/pkg/report"

// Output receives every report the monitor produces.
type Output interface {
	Publish(report.Report) error
	Close() error
}

// helper constructors are in subpackages
