package commands

import (
	"fmt"
	"os"

	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/logger"
)

// setup loads env config, the strategy YAML, and the logger.
// 설정 오류는 여기서 즉시 실패 (조용한 기본값 없음).
func setup() (*config.Config, *strategy.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}

	log := logger.New(cfg)

	// 명시적으로 지정한 전략 파일(--strategy 플래그 또는 STRATEGY_PATH)은
	// 부재 시 즉시 실패. 안전 관련 임계값이 기본값으로 조용히 대체되면 안 됨.
	// 내장 기본 경로만 부재 시 기본값 폴백을 허용한다.
	path := cfg.StrategyPath
	explicit := cfg.StrategyPathSet
	if strategyFile != "" {
		path = strategyFile
		explicit = true
	}

	var strat *strategy.Config
	if explicit {
		strat, err = strategy.Load(path)
	} else {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			log.WithField("path", path).Warn("Strategy file not found, using built-in defaults")
		}
		strat, err = strategy.LoadOrDefault(path)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load strategy config %s: %w", path, err)
	}

	return cfg, strat, log, nil
}
