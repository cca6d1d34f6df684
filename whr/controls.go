package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowhr/pkg/record"
)

// createControlPanel builds the left-hand control column.
func createControlPanel(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("Connect", theme.MediaPlayIcon(), func() {
		handleConnect(state)
	})

	state.liveBtn = widget.NewButton(liveButtonText(true), func() {
		handleLiveToggle(state)
	})
	updateToggleButton(state.liveBtn, state.monitor.Live())

	labels := make([]string, len(record.Durations))
	for i, d := range record.Durations {
		labels[i] = record.DurationLabel(d)
	}
	state.durationSelect = widget.NewSelect(labels, nil)
	state.durationSelect.SetSelected(record.DurationLabel(defaultDuration(state.cfg.Record.Duration)))

	state.startBtn = widget.NewButton("Start Recording", func() {
		handleStartRecording(state)
	})
	state.stopBtn = widget.NewButton("Stop Recording", func() {
		if err := state.session.Stop(); err != nil {
			dialog.ShowError(fmt.Errorf("failed to finish recording: %w", err), state.window)
		}
		updateRecordingStatus(state)
	})

	state.statusLabel = widget.NewLabel("")
	updateRecordingStatus(state)

	settingsBtn := widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewVBox(
		state.connectBtn,
		settingsBtn,
		widget.NewSeparator(),
		state.liveBtn,
		widget.NewSeparator(),
		widget.NewLabel("Test Duration"),
		state.durationSelect,
		state.startBtn,
		state.stopBtn,
		state.statusLabel,
	)
}

// handleLiveToggle pauses or resumes the plots.
func handleLiveToggle(state *appState) {
	live := !state.monitor.Live()
	state.monitor.SetLive(live)
	updateToggleButton(state.liveBtn, live)
	log.Printf("Live updates: %v", live)
}

// handleStartRecording opens a new recording file for the selected duration.
func handleStartRecording(state *appState) {
	d, ok := selectedDuration(state.durationSelect.Selected)
	if !ok {
		dialog.ShowError(errors.New("select a test duration"), state.window)
		return
	}

	path := record.FileName(state.cfg.Record.Directory, time.Now())
	if err := state.session.Start(path, d); err != nil {
		dialog.ShowError(fmt.Errorf("failed to start recording: %w", err), state.window)
		return
	}
	log.Printf("Recording to %s for %s", path, record.DurationLabel(d))
	updateRecordingStatus(state)
}

// updateRecordingStatus reflects the session state in the control panel.
func updateRecordingStatus(state *appState) {
	st := state.session.Status()
	state.statusLabel.SetText(statusText(st))
	if st.Active {
		state.startBtn.Disable()
		state.stopBtn.Enable()
		state.durationSelect.Disable()
	} else {
		state.startBtn.Enable()
		state.stopBtn.Disable()
		state.durationSelect.Enable()
	}
}

func statusText(st record.Status) string {
	if !st.Active {
		return "Test Status: Not Active"
	}
	return fmt.Sprintf("Test Status: Active\nUntil %s\nRows: %d", st.Until.Format("15:04:05"), st.Rows)
}

func liveButtonText(live bool) string {
	if live {
		return "Disable Live Updates"
	}
	return "Enable Live Updates"
}

// updateToggleButton updates the live button text and its visual state.
func updateToggleButton(btn *widget.Button, isOn bool) {
	btn.SetText(liveButtonText(isOn))
	if isOn {
		btn.Importance = widget.HighImportance
	} else {
		btn.Importance = widget.MediumImportance
	}
	btn.Refresh()
}

// selectedDuration maps a duration label back to its duration.
func selectedDuration(label string) (time.Duration, bool) {
	for _, d := range record.Durations {
		if record.DurationLabel(d) == label {
			return d, true
		}
	}
	return 0, false
}

// defaultDuration returns d when it is one of the offered durations and the
// shortest one otherwise.
func defaultDuration(d time.Duration) time.Duration {
	for _, known := range record.Durations {
		if known == d {
			return d
		}
	}
	return record.Durations[0]
}
