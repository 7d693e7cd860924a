package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/pipeline"
)

// session holds what every long-running command needs
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *model.Config
	logger *zap.Logger
}

// newSession loads config, builds the logger and traps SIGINT/SIGTERM
func newSession() (*session, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &session{ctx: ctx, cancel: cancel, cfg: cfg, logger: logger}, nil
}

// pipeline wires a full pipeline from the session config
func (s *session) pipeline() (*pipeline.Pipeline, error) {
	p, err := pipeline.FromConfig(s.ctx, s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize pipeline: %w", err)
	}
	return p, nil
}

func (s *session) close() {
	s.cancel()
	_ = s.logger.Sync()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
