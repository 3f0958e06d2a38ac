package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Stage", KeyStage, "normalize", Stage("normalize")},
		{"Framework", KeyFramework, "react", Framework("react")},
		{"ViewerURL", KeyViewerURL, "https://x/s/abc", ViewerURL("https://x/s/abc")},
		{"BundleHash", KeyBundleHash, "deadbeef", BundleHash("deadbeef")},
		{"Kind", KeyKind, "SubmissionRejected", Kind("SubmissionRejected")},
		{"Code", KeyCode, "structure.imbalance", Code("structure.imbalance")},
		{"Path", KeyPath, "/v1/process", Path("/v1/process")},
		{"File", KeyFile, "app.jsx", File("app.jsx")},
		{"Method", KeyMethod, "POST", Method("POST")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Job", KeyJob, "cache-prune", Job("cache-prune")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Status(502); a.Key != KeyStatus || a.Value.Int64() != 502 {
		t.Fatalf("unexpected status attr %v", a)
	}
	if a := DurationMS(12.5); a.Key != KeyDurationMS || a.Value.Float64() != 12.5 {
		t.Fatalf("unexpected duration attr %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
}
