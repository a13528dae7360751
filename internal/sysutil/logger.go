package sysutil

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 默认是 Nop，库代码和测试在未初始化时也能安全调用
var Log = zap.NewNop()
var LogSugar = Log.Sugar()

// InitLogger 初始化全局日志，level 为 debug/info/warn/error，无法解析时退回 info
func InitLogger(level string) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder        // 格式化时间输出
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder // 彩色级别
	// 控制台输出，带颜色和行号；stdout 留给 CLI 的事件输出
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config.EncoderConfig),
		zapcore.AddSync(os.Stderr),
		lvl,
	)
	Log = zap.New(core, zap.AddCaller())
	LogSugar = Log.Sugar()
	if err != nil && level != "" {
		LogSugar.Warnf("unknown log level %q, falling back to info", level)
	}
}
