package download

import "fmt"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

func (e *Engine) progress(level ProgressLevel, format string, args ...any) {
	if e.onProgress == nil {
		return
	}
	e.onProgress(ProgressEvent{Message: fmt.Sprintf(format, args...), Level: level})
}
