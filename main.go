// Command overlays runs the desktop overlay manager: a click-through,
// always-on-top window showing transient highlight rectangles, countdown
// and elapsed-time panels and QR cards, driven by external processes over a
// local socket.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/aubex/overlays/control"
	"github.com/aubex/overlays/ipc"
	"github.com/aubex/overlays/ui"
)

const joinTimeout = 5 * time.Second

// Fallback overlay size when the driver cannot report the display size
// before the window is shown.
const (
	defaultWidth  = 1920
	defaultHeight = 1080
)

func main() {
	socketPath := ipc.DefaultSocketPath()
	if len(os.Args) == 2 {
		socketPath = os.Args[1]
	}

	fyneApp := app.New()
	fyneApp.Settings().SetTheme(ui.NewOverlayTheme())

	window := ui.NewOverlayWindow(fyneApp, defaultWidth, defaultHeight)

	dispatcher := control.NewDispatcher(window)
	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	server := ipc.NewServer(dispatcher, socketPath)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	log.Printf("Overlay manager ready, socket %s", socketPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("Received shutdown signal, cleaning up...")
		fyne.Do(window.Window().Close)
	}()

	window.Window().SetOnClosed(func() {
		cancel()
		if err := server.Close(); err != nil {
			log.Printf("Failed to close IPC server: %v", err)
		}
	})
	window.Window().ShowAndRun()

	// ShowAndRun returns once the window closes; join the workers with a
	// bounded wait so shutdown never hangs.
	if !await(dispatcher.Done(), joinTimeout) {
		log.Printf("Dispatcher did not stop within %s", joinTimeout)
	}
	if !await(server.Done(), joinTimeout) {
		log.Printf("IPC server did not stop within %s", joinTimeout)
	}
	log.Printf("Overlay manager shutdown complete")
}

func await(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
