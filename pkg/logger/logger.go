package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.RWMutex
	globalLogger *zap.Logger
	once         sync.Once
)

// 控制台输出时日志等级固定 5 字符宽度并着色
var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  "\x1b[35m",
	zapcore.InfoLevel:   "\x1b[34m",
	zapcore.WarnLevel:   "\x1b[33m",
	zapcore.ErrorLevel:  "\x1b[31m",
	zapcore.DPanicLevel: "\x1b[31;1m",
	zapcore.PanicLevel:  "\x1b[31;1m",
	zapcore.FatalLevel:  "\x1b[31;1m",
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	s := level.CapitalString()
	if len(s) < 5 {
		s += strings.Repeat(" ", 5-len(s))
	}
	if c, ok := levelColors[level]; ok {
		s = c + s + "\x1b[0m"
	}
	enc.AppendString(s)
}

func callerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	const width = 28
	s := caller.TrimmedPath()
	if len(s) < width {
		s += strings.Repeat(" ", width-len(s))
	}
	enc.AppendString(s)
}

// ParseLevel debug, info, warn, error；无法识别时按 info 处理
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Init 初始化全局日志器，只有第一次调用生效
// level: debug, info, warn, error
// format: json, console
func Init(level, format string) {
	once.Do(func() {
		SetLogger(New(level, format))
	})
}

// New 按级别和格式构造一个输出到 stdout 的 Logger
func New(level, format string) *zap.Logger {
	var encoder zapcore.Encoder
	if format == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeLevel = colorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05]")
		cfg.EncodeCaller = callerEncoder
		cfg.ConsoleSeparator = " "
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), ParseLevel(level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// SetLogger 替换全局 Logger (测试中可传入 zap.NewNop 或 observer)
func SetLogger(l *zap.Logger) {
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// Get 获取全局 Logger
func Get() *zap.Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil {
		Init("info", "console")
		mu.RLock()
		l = globalLogger
		mu.RUnlock()
	}
	return l
}

// Sync 刷新日志缓冲，最多等待 200ms
func Sync() {
	l := Get()
	done := make(chan struct{})
	go func() {
		_ = l.Sync()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
	}
}

func Debug(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Named 创建命名 Logger
func Named(name string) *zap.Logger {
	return Get().Named(name)
}

// 便捷字段函数 (从 zap 导出)
var (
	String = zap.String
	Int    = zap.Int
	Uint8  = zap.Uint8
	Uint16 = zap.Uint16
	Uint32 = zap.Uint32
	Bool   = zap.Bool
	Err    = zap.Error
	Any    = zap.Any
	Binary = zap.Binary
)
