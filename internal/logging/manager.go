package logging

import (
	"fmt"
	"sync"
)

type levels struct {
	console, file LogLevel
}

// LoggerManager хранит логгеры компонентов процесса. Уровни, заданные до
// создания логгера, применяются при его создании.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	presets map[string]levels
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		presets: make(map[string]levels),
	}
}

// GetLogger возвращает логгер компонента, создавая файл при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}
	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер %s: %w", component, err)
	}
	if p, ok := lm.presets[component]; ok {
		logger.minConsoleLevel, logger.minFileLevel = p.console, p.file
	}
	lm.loggers[component] = logger
	return logger, nil
}

// SetLogLevel задаёт пороги компонента. Логгер может ещё не существовать.
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.presets[component] = levels{console: consoleLevel, file: fileLevel}
	if logger, ok := lm.loggers[component]; ok {
		logger.minConsoleLevel = consoleLevel
		logger.minFileLevel = fileLevel
	}
}

// CloseAll закрывает файлы всех логгеров
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("не удалось закрыть логгер %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// GetComponentLogger возвращает логгер компонента. Если файл создать не удалось,
// компонент пишет только в консоль.
func GetComponentLogger(component string) *Logger {
	logger, err := GetLoggerManager().GetLogger(component)
	if err == nil {
		return logger
	}
	fallback := NewWriterLogger(component, defaultLogger.consoleLogger.Writer(), INFO)
	fallback.Warn("Логи компонента пишутся только в консоль: %v", err)
	return fallback
}

func GetMultipartLogger() *Logger {
	return GetComponentLogger("multipart")
}

func GetStorageLogger() *Logger {
	return GetComponentLogger("storage")
}

func GetSyncLogger() *Logger {
	return GetComponentLogger("sync")
}
