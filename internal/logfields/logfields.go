package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCheckID    = "check_id"
	KeyTrigger    = "trigger"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyDialect    = "dialect"
	KeyBuild      = "build"
	KeyTimestamp  = "timestamp"
	KeyInstalled  = "installed"
	KeyTotal      = "total"
	KeyNew        = "new"
	KeyReal       = "real"
	KeySkipped    = "skipped"
	KeyDurationMS = "duration_ms"
	KeyJobID      = "job_id"
	KeyPath       = "path"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CheckID(id string) slog.Attr     { return slog.String(KeyCheckID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Dialect(d string) slog.Attr      { return slog.String(KeyDialect, d) }
func Build(name string) slog.Attr     { return slog.String(KeyBuild, name) }
func Timestamp(ts int64) slog.Attr    { return slog.Int64(KeyTimestamp, ts) }
func Installed(ts int64) slog.Attr    { return slog.Int64(KeyInstalled, ts) }
func Total(n int) slog.Attr           { return slog.Int(KeyTotal, n) }
func New(n int) slog.Attr             { return slog.Int(KeyNew, n) }
func Real(n int) slog.Attr            { return slog.Int(KeyReal, n) }
func Skipped(n int) slog.Attr         { return slog.Int(KeySkipped, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
