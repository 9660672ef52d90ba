// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// redactableLogs, when set, makes log entries keep their redaction markers so
// that the unsafe parts of the output can be removed later.
var redactableLogs atomic.Bool

// SetRedactableLogs controls whether log entries written from now on keep
// their redaction markers.
func SetRedactableLogs(enabled bool) {
	redactableLogs.Store(enabled)
}

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	return FormatWithContextTagsRedactable(ctx, format, args...).StripMarkers()
}

// FormatWithContextTagsRedactable is like FormatWithContextTags, but tag
// values and arguments not marked safe are enclosed in redaction markers.
func FormatWithContextTagsRedactable(
	ctx context.Context, format string, args ...interface{},
) redact.RedactableString {
	var buf redact.StringBuilder
	formatTags(ctx, &buf)
	buf.Printf(format, args...)
	return buf.RedactableString()
}

// formatEntry renders a log message for the glog sink.
func formatEntry(ctx context.Context, format string, args []interface{}) string {
	if redactableLogs.Load() {
		return string(FormatWithContextTagsRedactable(ctx, format, args...))
	}
	return FormatWithContextTags(ctx, format, args...)
}

// formatTags writes the tags attached to ctx, if any, as "[k1=v1,k2] ".
func formatTags(ctx context.Context, buf *redact.StringBuilder) {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		return
	}
	buf.SafeRune('[')
	for i, t := range tags.Get() {
		if i > 0 {
			buf.SafeRune(',')
		}
		buf.SafeString(redact.SafeString(t.Key()))
		if v := t.ValueStr(); v != "" {
			buf.SafeRune('=')
			buf.Print(v)
		}
	}
	buf.SafeString("] ")
}
