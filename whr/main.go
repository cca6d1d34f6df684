package main

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/device"
	"github.com/itohio/gowhr/pkg/history"
	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/record"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/itohio/gowhr/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	probes, err := cfg.ProbeAddresses()
	if err != nil {
		log.Fatalf("Invalid probe list: %v", err)
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.gowhr")

	// Create main window
	window := application.NewWindow("Waste Heat Recovery System")
	window.Resize(fyne.NewSize(1400, 900))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		probes:     probes,
		monitor:    history.New(&cfg.History),
		session:    record.New(len(probes)),
		window:     window,
		useMock:    *mockFlag,
		serialLog:  newSerialLog(serialLogLines),
	}

	state.plots = [4]*scope.Plot{
		scope.New("RPM", "Time", "RPM"),
		scope.New("Water Vs Temperatures", "Time", "Value"),
		scope.New("Water Level", "Time", "Count"),
		scope.New("Temperatures", "Time", "°F"),
	}
	for _, p := range state.plots {
		p.SetMinWindow(state.cfg.Report.Period * 10)
	}

	// Plots follow the monitor; registered once for every device chain.
	state.monitor.OnUpdate(func(snap history.Snapshot) {
		traces := plotTraces(snap)
		fyne.Do(func() {
			for i, p := range state.plots {
				p.SetTraces(traces[i]...)
			}
		})
	})
	state.session.OnStop(func(st record.Status) {
		fyne.Do(func() {
			updateRecordingStatus(state)
		})
	})

	plotGrid := container.NewGridWithColumns(2,
		state.plots[0], state.plots[1],
		state.plots[2], state.plots[3],
	)
	content := container.NewVSplit(plotGrid, state.serialLog.widget())
	content.SetOffset(0.8)

	window.SetContent(container.NewBorder(
		nil,
		nil,
		createControlPanel(state),
		nil,
		content,
	))
	window.SetOnClosed(func() {
		closeChain(state.chain)
		if err := state.session.Stop(); err != nil {
			log.Printf("Failed to finish recording: %v", err)
		}
	})
	window.ShowAndRun()
}

// deviceChain tracks the goroutines fed by one connected device for graceful
// shutdown.
type deviceChain struct {
	device      device.Device
	recordDone  chan struct{} // Closed when the recording tee exits
	monitorDone chan struct{} // Closed when the monitor goroutine exits
	linesDone   chan struct{} // Closed when the serial log goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	probes     []probe.Address
	device     device.Device
	monitor    *history.Monitor
	session    *record.Session
	window     fyne.Window
	useMock    bool
	chain      *deviceChain

	plots          [4]*scope.Plot
	serialLog      *serialLog
	connectBtn     *widget.Button
	liveBtn        *widget.Button
	durationSelect *widget.Select
	startBtn       *widget.Button
	stopBtn        *widget.Button
	statusLabel    *widget.Label
}

// closeChain gracefully closes the device chain.
// Waits for all goroutines to finish and channels to drain.
func closeChain(chain *deviceChain) {
	if chain == nil {
		return
	}

	// Close device - this closes the reports and lines channels
	if chain.device != nil {
		chain.device.Close()
	}

	<-chain.recordDone
	<-chain.monitorDone
	<-chain.linesDone
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeChain(state.chain)
		state.chain = nil
		state.device = nil
		state.connectBtn.SetText("Connect")
		if state.useMock {
			log.Println("Disconnected from mocked device")
		} else {
			log.Println("Disconnected from serial port")
		}
		return
	}

	var dev device.Device
	if state.useMock {
		dev = device.NewMock(&state.cfg.Mock, state.probes)
		log.Println("Using mocked device")
	} else {
		dev = device.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, device.DefaultBufferSize, len(state.probes))
	}

	if err := dev.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = dev
	state.connectBtn.SetText("Disconnect")
	if state.useMock {
		log.Println("Connected to mocked device")
	} else {
		log.Printf("Connected to serial port: %s", state.cfg.Serial.Port)
	}

	// Reset monitor shutdown flag for new chain
	state.monitor.ResetShutdown()

	chain := &deviceChain{
		device:      dev,
		recordDone:  make(chan struct{}),
		monitorDone: make(chan struct{}),
		linesDone:   make(chan struct{}),
	}

	// Every report is recorded (while a session is active) before it is plotted.
	toMonitor := recordTee(state.session, dev.Reports(), chain.recordDone)

	go func() {
		defer close(chain.monitorDone)
		state.monitor.Process(toMonitor)
	}()

	go func() {
		defer close(chain.linesDone)
		for line := range dev.Lines() {
			fyne.Do(func() {
				state.serialLog.Append(line)
			})
		}
	}()

	state.chain = chain
}

// recordTee writes every report to the session and passes it on. The output
// closes after the input does, then done is closed.
func recordTee(session *record.Session, in <-chan report.Report, done chan struct{}) <-chan report.Report {
	out := make(chan report.Report, device.DefaultBufferSize)

	go func() {
		defer close(done)
		defer close(out)
		for rep := range in {
			if err := session.Write(rep); err != nil {
				log.Printf("Failed to record report: %v", err)
			}
			out <- rep
		}
	}()

	return out
}
