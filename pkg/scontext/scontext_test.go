package scontext

import (
	"context"
	"errors"
	"testing"
)

func TestStartStopContext(t *testing.T) {
	tests := []struct {
		name    string
		init    func(t *testing.T) (*StartStopContext, context.Context)
		wantErr error
	}{
		{
			"Normal",
			func(t *testing.T) (*StartStopContext, context.Context) {
				return &StartStopContext{}, context.Background()
			},
			nil,
		},
		{
			"Running",
			func(t *testing.T) (*StartStopContext, context.Context) {
				sc := &StartStopContext{}
				if _, err := sc.Start(context.Background()); err != nil {
					t.Fatalf("Start failed %s", err)
				}
				return sc, context.Background()
			},
			ErrRunning,
		},
		{
			"Restart",
			func(t *testing.T) (*StartStopContext, context.Context) {
				sc := &StartStopContext{}
				if _, err := sc.Start(context.Background()); err != nil {
					t.Fatalf("Start failed %s", err)
				}
				if err := sc.Stop(); err != nil {
					t.Fatalf("Stop failed %s", err)
				}
				return sc, context.Background()
			},
			nil,
		},
		{
			"ParentCancelled",
			func(t *testing.T) (*StartStopContext, context.Context) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return &StartStopContext{}, ctx
			},
			ErrParentStopped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, parent := tt.init(t)
			ctx, err := sc.Start(parent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Start error = %v, expected %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if !sc.Running() {
				t.Errorf("Context expected to be running")
			}
			if err := sc.Stop(); err != nil {
				t.Errorf("Stop failed %s", err)
			}
			select {
			case <-ctx.Done():
			default:
				t.Errorf("Context not cancelled after Stop")
			}
			if err := sc.Stop(); !errors.Is(err, ErrStopped) {
				t.Errorf("Second Stop expected ErrStopped, got %v", err)
			}
		})
	}
}
