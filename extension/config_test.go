package extension

import (
	"testing"
	"time"

	"github.com/xraph/larder/store/memory"
)

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name         string
		yaml         Config
		programmatic Config
		want         Config
	}{
		{
			name: "defaults fill an empty config",
			want: Config{Backend: BackendMemory},
		},
		{
			name:         "yaml wins over programmatic values",
			yaml:         Config{Backend: BackendPostgres, LowStockScanInterval: time.Minute},
			programmatic: Config{Backend: BackendSQLite, LowStockScanInterval: time.Hour},
			want:         Config{Backend: BackendPostgres, LowStockScanInterval: time.Minute},
		},
		{
			name:         "programmatic fills gaps and sets flags",
			yaml:         Config{},
			programmatic: Config{Backend: BackendMongo, LowStockScanInterval: time.Hour, DisableMigrate: true, Metrics: true},
			want:         Config{Backend: BackendMongo, LowStockScanInterval: time.Hour, DisableMigrate: true, Metrics: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeConfigurations(tt.yaml, tt.programmatic); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	for _, backend := range []string{"", "memory", " Memory "} {
		s, err := newStore(backend, nil)
		if err != nil {
			t.Fatalf("newStore(%q): %v", backend, err)
		}
		if _, ok := s.(*memory.Store); !ok {
			t.Errorf("newStore(%q) = %T, want *memory.Store", backend, s)
		}
	}

	for _, backend := range []string{BackendPostgres, BackendSQLite, BackendMongo, "oracle"} {
		if _, err := newStore(backend, nil); err == nil {
			t.Errorf("newStore(%q) without a database should fail", backend)
		}
	}
}
