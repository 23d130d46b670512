package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建日志器：同时输出到控制台和logs.txt
func New() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout", "logs.txt"}
	cfg.ErrorOutputPaths = []string{"stderr", "logs.txt"}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("日志器初始化失败: %w", err)
	}

	return logger.Sugar(), nil
}
