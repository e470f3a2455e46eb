// Package api exposes the recurring-payment authorization engine over
// HTTP. Every operation maps to a single atomic engine invocation; the API
// layer only authenticates callers and translates engine errors to
// statuses.
package api
