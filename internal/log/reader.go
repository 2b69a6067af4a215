package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SessionInfo holds information about a log session.
type SessionInfo struct {
	ID        string
	Timestamp time.Time
	Dir       string
}

// ToolLog holds the content of a single tool's persisted log file.
type ToolLog struct {
	Alias   string
	Content string
}

// ListSessions returns all sessions in the logs directory, sorted newest first.
func ListSessions(baseDir string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read logs directory: %w", err)
	}

	var sessions []SessionInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t, err := time.Parse("20060102T150405", e.Name())
		if err != nil {
			continue // skip non-session directories
		}
		sessions = append(sessions, SessionInfo{
			ID:        e.Name(),
			Timestamp: t,
			Dir:       filepath.Join(baseDir, e.Name()),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})

	return sessions, nil
}

// ReadSessionLogs reads every failed tool's log file from a session
// directory.
func ReadSessionLogs(sessionDir string) ([]ToolLog, error) {
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var logs []ToolLog
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(sessionDir, e.Name()))
		if err != nil {
			continue
		}

		logs = append(logs, ToolLog{
			Alias:   e.Name()[:len(e.Name())-len(".log")],
			Content: string(content),
		})
	}

	sort.Slice(logs, func(i, j int) bool { return logs[i].Alias < logs[j].Alias })

	return logs, nil
}

// ReadToolLog reads a specific tool's log from a session directory.
func ReadToolLog(sessionDir, alias string) (string, error) {
	logPath := filepath.Join(sessionDir, alias+".log")

	content, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no log found for %s", alias)
		}
		return "", fmt.Errorf("failed to read log file: %w", err)
	}

	return string(content), nil
}
