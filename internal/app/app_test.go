package app

import (
	"context"
	"errors"
	"testing"

	"github.com/querychat/querychat/internal/config"
	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/log"
	"github.com/querychat/querychat/internal/registry"
)

func TestSetupRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want error
	}{
		{
			name: "unsupported provider",
			cfg: &config.Config{
				Provider:       "anthropic",
				ModelName:      "m",
				Addr:           "127.0.0.1:3400",
				ModelRateLimit: 1,
				ModelRateBurst: 1,
			},
			want: config.ErrInvalidProvider,
		},
		{
			name: "missing model name",
			cfg: &config.Config{
				Provider:       config.ProviderOllama,
				OllamaHost:     "http://localhost:11434",
				Addr:           "127.0.0.1:3400",
				ModelRateLimit: 1,
				ModelRateBurst: 1,
			},
			want: config.ErrInvalidModelName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Setup(context.Background(), tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("Setup() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAppClose(t *testing.T) {
	logger := log.NewNop()
	reg := registry.New(func(context.Context, database.Credentials) (database.Conn, error) {
		return nil, errors.New("unused")
	}, logger)

	a := &App{Logger: logger, Registry: reg}
	a.Close()

	if reg.Count() != 0 {
		t.Errorf("registry has %d connections after Close", reg.Count())
	}
}
