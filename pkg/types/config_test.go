package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "firestore", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "unknown sync strategy",
			config:  Config{Backend: "sqlite", SyncStrategy: "eventually"},
			wantErr: ErrSyncStrategyUnknown,
		},
		{
			name:    "batch without size",
			config:  Config{Backend: "sqlite", SyncStrategy: SyncBatch, BatchInterval: time.Second},
			wantErr: ErrBatchSizeInvalid,
		},
		{
			name:    "batch without interval",
			config:  Config{Backend: "sqlite", SyncStrategy: SyncBatch, BatchSize: 10},
			wantErr: ErrBatchIntervalInvalid,
		},
		{
			name:    "valid batch config",
			config:  Config{Backend: "sqlite", SyncStrategy: SyncBatch, BatchSize: 10, BatchInterval: time.Second},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigEffectiveSyncStrategy(t *testing.T) {
	if got := (Config{}).EffectiveSyncStrategy(); got != SyncImmediate {
		t.Fatalf("expected %q, got %q", SyncImmediate, got)
	}
	if got := (Config{SyncStrategy: SyncOnClose}).EffectiveSyncStrategy(); got != SyncOnClose {
		t.Fatalf("expected %q, got %q", SyncOnClose, got)
	}
}
