// Package logfields centralizes slog attribute keys so log ingestion schemas stay stable.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyFiles      = "files"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyAddr       = "addr"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyContentLen = "content_length"
	KeyScheduleID = "schedule_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Outcome(o string) slog.Attr { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func File(f string) slog.Attr { return slog.String(KeyFile, f) }
func Files(n int) slog.Attr { return slog.Int(KeyFiles, n) }
func Command(c string) slog.Attr { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr { return slog.Int(KeyExitCode, code) }
func Method(m string) slog.Attr { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Addr(addr string) slog.Attr { return slog.String(KeyAddr, addr) }
func Subject(s string) slog.Attr { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func ContentLength(n int64) slog.Attr { return slog.Int64(KeyContentLen, n) }
func ScheduleID(id string) slog.Attr { return slog.String(KeyScheduleID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
