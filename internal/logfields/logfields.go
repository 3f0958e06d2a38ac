package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyFramework  = "framework"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyViewerURL  = "viewer_url"
	KeyBundleHash = "bundle_hash"
	KeyKind       = "kind"
	KeyCode       = "code"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyMethod     = "method"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
	KeyURL        = "url"
	KeyJob        = "job"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Framework(fw string) slog.Attr    { return slog.String(KeyFramework, fw) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func ViewerURL(u string) slog.Attr     { return slog.String(KeyViewerURL, u) }
func BundleHash(h string) slog.Attr    { return slog.String(KeyBundleHash, h) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func Code(c string) slog.Attr          { return slog.String(KeyCode, c) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Job(name string) slog.Attr        { return slog.String(KeyJob, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
