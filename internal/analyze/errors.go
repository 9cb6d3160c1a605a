// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"errors"
	"strings"
)

// Sentinel errors returned by Analyze. Callers drop the paper for this run
// on any of them.
var (
	// ErrRosterExhausted means no model is left to try. Every later call
	// fails the same way without touching the network.
	ErrRosterExhausted = errors.New("analyze: model roster exhausted")
	// ErrDocumentFetch means the paper's document could not be downloaded.
	ErrDocumentFetch = errors.New("analyze: document fetch failed")
	// ErrModelCall means the model failed with an error that has no fallback.
	ErrModelCall = errors.New("analyze: model call failed")
)

// Model backends wrap these so the analyzer can tell transient conditions
// apart without parsing provider messages.
var (
	ErrOverloaded     = errors.New("model overloaded")
	ErrQuotaExhausted = errors.New("model quota exhausted")
)

type failureKind int

const (
	failureOther failureKind = iota
	failureOverload
	failureQuota
)

// classify maps a model error to the fallback it triggers. Wrapped
// sentinels win; otherwise the error text is matched the way provider
// SDKs describe these conditions ("overloaded", "RESOURCE_EXHAUSTED",
// "insufficient_quota").
func classify(err error) failureKind {
	switch {
	case errors.Is(err, ErrOverloaded):
		return failureOverload
	case errors.Is(err, ErrQuotaExhausted):
		return failureQuota
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "overload"):
		return failureOverload
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "quota"):
		return failureQuota
	default:
		return failureOther
	}
}
