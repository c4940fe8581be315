// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Ad attributes
	AdIDKey       = "ad.id"
	AdCategoryKey = "ad.category"
	AdPlatformKey = "ad.platform"
	AdFallbackKey = "ad.fallback"

	// Engagement attributes
	EngagementKindKey = "engagement.kind"
	SessionIDKey      = "session.id"

	// Error attributes
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SelectionAttributes describes one creative selection.
func SelectionAttributes(platform, category, adID string, fallback bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AdPlatformKey, platform),
		attribute.String(AdCategoryKey, category),
		attribute.String(AdIDKey, adID),
		attribute.Bool(AdFallbackKey, fallback),
	}
}

// EngagementAttributes describes one analytics dispatch.
func EngagementAttributes(kind, adID, sessionID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(EngagementKindKey, kind),
		attribute.String(AdIDKey, adID),
		attribute.String(SessionIDKey, sessionID),
	}
}
