package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowhr/pkg/device"
	"github.com/itohio/gowhr/pkg/probe"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createProbesTab(state),
		createHistoryTab(state),
		createRecordTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

func saveConfig(state *appState) bool {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}
	return true
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := device.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = port.Description
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			selectedPort := state.cfg.Serial.Port
			if portSelect.Selected != "" {
				selectedPort = portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
			}
			baud := state.cfg.Serial.BaudRate
			if b, err := strconv.Atoi(baudEntry.Text); err == nil && b > 0 {
				baud = b
			}

			changed := state.cfg.Serial.Port != selectedPort || state.cfg.Serial.BaudRate != baud
			wasConnected := !state.useMock && state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = selectedPort
			state.cfg.Serial.BaudRate = baud
			if !saveConfig(state) {
				return
			}

			// Reopen the port with the new settings
			if changed && wasConnected {
				handleConnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createProbesTab edits the probe ROM codes. The new list applies to the next
// connection and the next recording.
func createProbesTab(state *appState) *container.TabItem {
	probesEntry := widget.NewMultiLineEntry()
	probesEntry.SetText(strings.Join(state.cfg.Report.Probes, "\n"))
	probesEntry.SetMinRowsVisible(4)

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Report.Period.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Probe ROM codes", Widget: probesEntry, HintText: "One 16 hex digit address per line"},
			{Text: "Report Period", Widget: periodEntry},
		},
		OnSubmit: func() {
			var list []string
			for _, line := range strings.Split(probesEntry.Text, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if _, err := probe.ParseAddress(line); err != nil {
					dialog.ShowError(err, state.window)
					return
				}
				list = append(list, line)
			}
			state.cfg.Report.Probes = list
			if d, err := time.ParseDuration(periodEntry.Text); err == nil && d > 0 {
				state.cfg.Report.Period = d
			}
			if !saveConfig(state) {
				return
			}

			probes, err := state.cfg.ProbeAddresses()
			if err != nil {
				dialog.ShowError(err, state.window)
				return
			}
			state.probes = probes
			if err := state.session.SetProbes(len(probes)); err != nil {
				dialog.ShowError(fmt.Errorf("probe list applies after the recording ends: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Probes", form)
}

// createHistoryTab creates the plot history configuration tab.
func createHistoryTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.History.Window.String())

	maxPointsEntry := widget.NewEntry()
	maxPointsEntry.SetText(strconv.Itoa(state.cfg.History.MaxPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window", Widget: windowEntry, HintText: "e.g. 10m or 1h"},
			{Text: "Max Points", Widget: maxPointsEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(windowEntry.Text); err == nil && d >= 0 {
				state.cfg.History.Window = d
			}
			if n, err := strconv.Atoi(maxPointsEntry.Text); err == nil && n > 0 {
				state.cfg.History.MaxPoints = n
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("History", form)
}

// createRecordTab creates the recording configuration tab.
func createRecordTab(state *appState) *container.TabItem {
	dirEntry := widget.NewEntry()
	dirEntry.SetText(state.cfg.Record.Directory)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Directory", Widget: dirEntry},
		},
		OnSubmit: func() {
			state.cfg.Record.Directory = strings.TrimSpace(dirEntry.Text)
			if d, ok := selectedDuration(state.durationSelect.Selected); ok {
				state.cfg.Record.Duration = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Recording", form)
}

// createMockTab creates the mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	rpmEntry := widget.NewEntry()
	rpmEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.RPM))

	jitterEntry := widget.NewEntry()
	jitterEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Jitter))

	waterEntry := widget.NewEntry()
	waterEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.WaterLevel))

	waterStepEntry := widget.NewEntry()
	waterStepEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.WaterStep))

	temps := make([]string, len(state.cfg.Mock.Temps))
	for i, t := range state.cfg.Mock.Temps {
		temps[i] = fmt.Sprintf("%.2f", t)
	}
	tempsEntry := widget.NewEntry()
	tempsEntry.SetText(strings.Join(temps, ", "))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.TempNoise))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.Period.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "RPM", Widget: rpmEntry},
			{Text: "Jitter", Widget: jitterEntry},
			{Text: "Water Level", Widget: waterEntry},
			{Text: "Water Step", Widget: waterStepEntry},
			{Text: "Temperatures (°F)", Widget: tempsEntry, HintText: "Comma separated, in probe order"},
			{Text: "Temperature Noise (°F)", Widget: noiseEntry},
			{Text: "Report Period", Widget: periodEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(rpmEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.RPM = v
			}
			if v, err := strconv.ParseFloat(jitterEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.Jitter = v
			}
			if v, err := strconv.ParseFloat(waterEntry.Text, 64); err == nil {
				state.cfg.Mock.WaterLevel = v
			}
			if v, err := strconv.ParseFloat(waterStepEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.WaterStep = v
			}
			if v, err := parseTemps(tempsEntry.Text); err == nil {
				state.cfg.Mock.Temps = v
			} else {
				dialog.ShowError(err, state.window)
				return
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 32); err == nil && v >= 0 {
				state.cfg.Mock.TempNoise = float32(v)
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.Period = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}

// parseTemps parses a comma separated list of temperatures.
func parseTemps(s string) ([]float32, error) {
	var temps []float32
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, fmt.Errorf("bad temperature %q: %w", field, err)
		}
		temps = append(temps, float32(v))
	}
	return temps, nil
}
