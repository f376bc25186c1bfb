package manifest

import (
	"context"
	"errors"
	"fmt"
	"log"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
)

var (
	ErrNotVerified = errors.New("deletion is not verified")
	ErrDismissed   = errors.New("dialog has been dismissed")
)

// Verification is the manual gate of a destructive operation.
type Verification struct {
	Verified bool
}

// DeleteDialog is the flow to delete a manifest: edit command, verify, and submit.
type DeleteDialog struct {
	Coordinates  Coordinates
	Command      DeleteCommand
	Verification Verification

	writer      *Writer
	application string
	monitor     *tasks.Monitor
	dismissed   bool
}

type DialogOption func(*dialogConfig)

type dialogConfig struct {
	monitorOptions []tasks.MonitorOption
}

// WithDialogLogger sets the logger of the task monitor.
func WithDialogLogger(logger *log.Logger) DialogOption {
	return func(dc *dialogConfig) {
		dc.monitorOptions = append(dc.monitorOptions, tasks.WithMonitorLogger(logger))
	}
}

// WithOnDeleted registers side effect on successful deletion.
func WithOnDeleted(f func(apitasks.Task)) DialogOption {
	return func(dc *dialogConfig) {
		dc.monitorOptions = append(dc.monitorOptions, tasks.WithOnSuccess(f))
	}
}

func NewDeleteDialog(coords Coordinates, writer *Writer, application string, options ...DialogOption) *DeleteDialog {
	dc := &dialogConfig{}
	for _, opt := range options {
		opt(dc)
	}
	return &DeleteDialog{
		Coordinates: coords,
		Command:     NewDeleteCommand(coords),
		writer:      writer,
		application: application,
		monitor: tasks.NewMonitor(
			fmt.Sprintf("Deleting %s in %s", coords.Name, coords.Namespace),
			application,
			dc.monitorOptions...,
		),
	}
}

func (d *DeleteDialog) IsValid() bool {
	return d.Verification.Verified
}

func (d *DeleteDialog) Monitor() *tasks.Monitor {
	return d.monitor
}

// Delete submits the deletion through the monitor.
//
// # Returns
//
// - error: ErrNotVerified if the dialog is not verified,
// ErrDismissed if it has been canceled,
// or tasks.ErrAlreadySubmitted for second submission.
// Result of the task is told by Monitor().
func (d *DeleteDialog) Delete(ctx context.Context) error {
	if d.dismissed {
		return ErrDismissed
	}
	if !d.IsValid() {
		return ErrNotVerified
	}
	payload := BuildDeletePayload(d.Command)
	return d.monitor.Submit(ctx, func(ctx context.Context) promise.Promise[apitasks.Task] {
		return d.writer.DeleteManifest(ctx, payload, d.application, d.monitor.Watch())
	})
}

// Cancel dismisses the dialog. A deletion submitted already keeps running.
func (d *DeleteDialog) Cancel() {
	d.dismissed = true
}

func (d *DeleteDialog) Dismissed() bool {
	return d.dismissed
}
