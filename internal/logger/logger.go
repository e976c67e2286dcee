// Package logger обеспечивает единый вывод логов sntp-sync с префиксом и учётом quiet/verbose.
package logger

import "log"

const prefix = "sntp-sync: "

var (
	// Quiet при true отключает информационные и отладочные сообщения; Error выводится всегда.
	Quiet bool
	// Verbose при true включает Debug (детали каждого обмена).
	Verbose bool
)

// Info выводит сообщение с префиксом, если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf(prefix+format, args...)
}

// Debug выводит сообщение только при Verbose и без Quiet.
func Debug(format string, args ...interface{}) {
	if Quiet || !Verbose {
		return
	}
	log.Printf(prefix+"debug: "+format, args...)
}

// Error выводит сообщение об ошибке всегда.
func Error(format string, args ...interface{}) {
	log.Printf(prefix+"error: "+format, args...)
}
