// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

/*
Package api exposes the recommendation and chat services over HTTP.

Every /api/v1 route requires a bearer token. The token's user claim selects
the caller's session, which the handlers open through the session manager
on first use. Handlers are thin: decode, validate, call one service
operation, map its error.

Responses share one envelope:

	{
	  "status": "success",
	  "data": [...],
	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "request_id": "..."}
	}

	{
	  "status": "error",
	  "data": null,
	  "metadata": {"timestamp": "..."},
	  "error": {"code": "GENERATION_FAILED", "message": "..."}
	}

Informational outcomes that are not failures (an empty recommendation
result, a title already in a list) are 200 responses with metadata.info
set.

Error codes:

	VALIDATION_ERROR       400  request rejected before any service call
	UNAUTHORIZED           401  missing or invalid token
	NOT_FOUND              404  unknown list or chat
	CONFLICT               409  send already in flight, or chat deleted mid-reply
	RATE_LIMITED           429  per-IP or per-user request budget exhausted
	GENERATION_FAILED      502  the generator failed or returned unusable output
	GENERATOR_UNAVAILABLE  503  circuit breaker open
	PERSISTENCE_FAILED     503  the document store rejected a write
	NOT_READY              503  a readiness check failed (/health/ready only)
	INTERNAL_ERROR         500  anything else
*/
package api
