package utils

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// AppLogger adalah logger terpusat untuk bot
type AppLogger struct {
	prefix string
	debug  bool
	out    *log.Logger
}

var (
	globalLogger *AppLogger
	loggerOnce   sync.Mutex
)

// InitLogger menginisialisasi logger global
func InitLogger(debug bool) {
	loggerOnce.Lock()
	defer loggerOnce.Unlock()
	globalLogger = newAppLogger("[BOT]", debug)
}

// InitLoggerFromLevel menginisialisasi logger global dari string level di config
// ("debug" mengaktifkan pesan Debug, selain itu info)
func InitLoggerFromLevel(level string) {
	InitLogger(strings.EqualFold(strings.TrimSpace(level), "debug"))
}

// GetLogger mendapatkan logger global
func GetLogger() *AppLogger {
	loggerOnce.Lock()
	defer loggerOnce.Unlock()
	if globalLogger == nil {
		globalLogger = newAppLogger("[BOT]", false)
	}
	return globalLogger
}

func newAppLogger(prefix string, debug bool) *AppLogger {
	return &AppLogger{
		prefix: prefix,
		debug:  debug,
		out:    log.New(os.Stdout, "", log.LstdFlags),
	}
}

// IsDebug mengembalikan true jika mode debug aktif
func (l *AppLogger) IsDebug() bool {
	return l.debug
}

// Info menampilkan pesan info
func (l *AppLogger) Info(format string, args ...interface{}) {
	l.out.Printf("%s ℹ️  %s", l.prefix, fmt.Sprintf(format, args...))
}

// Success menampilkan pesan sukses
func (l *AppLogger) Success(format string, args ...interface{}) {
	l.out.Printf("%s ✅ %s", l.prefix, fmt.Sprintf(format, args...))
}

// Error menampilkan pesan error
func (l *AppLogger) Error(format string, args ...interface{}) {
	l.out.Printf("%s ❌ %s", l.prefix, fmt.Sprintf(format, args...))
}

// Warn menampilkan pesan warning
func (l *AppLogger) Warn(format string, args ...interface{}) {
	l.out.Printf("%s ⚠️  %s", l.prefix, fmt.Sprintf(format, args...))
}

// Debug hanya tampil jika debug mode
func (l *AppLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		l.out.Printf("%s 🔍 %s", l.prefix, fmt.Sprintf(format, args...))
	}
}

// Phase menandai tahap startup/shutdown
func (l *AppLogger) Phase(phase string) {
	l.out.Printf("%s 🚀 [%s] %s", l.prefix, time.Now().Format("15:04:05"), phase)
}

// Fatal menampilkan pesan fatal lalu exit
func (l *AppLogger) Fatal(format string, args ...interface{}) {
	l.out.Printf("%s ❌ FATAL: %s", l.prefix, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// BatchLogger mencatat jalannya batch operasi grup (add/promote, demote, rename, import kontak)
type BatchLogger struct {
	logger *log.Logger
	debug  bool
}

var batchLogger *BatchLogger

// InitBatchLogger inisialisasi logger batch
func InitBatchLogger(debug bool) {
	batchLogger = &BatchLogger{
		logger: log.New(os.Stdout, "[BATCH] ", log.LstdFlags),
		debug:  debug,
	}
}

// GetBatchLogger mendapatkan instance logger batch
func GetBatchLogger() *BatchLogger {
	if batchLogger == nil {
		InitBatchLogger(false)
	}
	return batchLogger
}

// Debug log untuk debugging
func (l *BatchLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		l.logger.Printf("[DEBUG] "+format, args...)
	}
}

// Info log untuk informasi umum
func (l *BatchLogger) Info(format string, args ...interface{}) {
	l.logger.Printf("[INFO] "+format, args...)
}

// Warn log untuk warning
func (l *BatchLogger) Warn(format string, args ...interface{}) {
	l.logger.Printf("[WARN] "+format, args...)
}

// Progress log posisi batch setelah satu operasi selesai
func (l *BatchLogger) Progress(batchID string, current, total, succeeded, failed int) {
	l.Info("%s: %d/%d operasi | Berhasil: %d | Gagal: %d", batchID, current, total, succeeded, failed)
}

// Attempt log satu percobaan yang gagal
func (l *BatchLogger) Attempt(groupID, target string, attempt, max int, err error) {
	l.Warn("Attempt %d/%d gagal untuk %s di %s: %v", attempt, max, target, groupID, err)
}

// FilteredLogger membungkus waLog.Logger dan membuang error non-fatal yang berisik
type FilteredLogger struct {
	Logger waLog.Logger
}

var noisyWhatsAppErrors = []string{
	"mismatching lthash",
	"retry receipt",
	"status@broadcast",
	"couldn't find message",
	"app state",
	"failed to decrypt",
}

// Errorf menampilkan error jika bukan error yang di-filter
func (fl *FilteredLogger) Errorf(format string, args ...interface{}) {
	message := strings.ToLower(fmt.Sprintf(format, args...))
	for _, filtered := range noisyWhatsAppErrors {
		if strings.Contains(message, filtered) {
			return
		}
	}
	fl.Logger.Errorf(format, args...)
}

// Warnf menampilkan warning
func (fl *FilteredLogger) Warnf(format string, args ...interface{}) {
	fl.Logger.Warnf(format, args...)
}

// Infof menampilkan info
func (fl *FilteredLogger) Infof(format string, args ...interface{}) {
	fl.Logger.Infof(format, args...)
}

// Debugf menampilkan debug
func (fl *FilteredLogger) Debugf(format string, args ...interface{}) {
	fl.Logger.Debugf(format, args...)
}

// Sub membuat sub-logger
func (fl *FilteredLogger) Sub(module string) waLog.Logger {
	return &FilteredLogger{Logger: fl.Logger.Sub(module)}
}
