// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

/*
Package middleware provides the infrastructure half of the HTTP middleware
stack. Authentication lives in internal/auth.

Every middleware here has the chi signature func(http.Handler) http.Handler.
The router mounts them in this order:

	r.Use(middleware.RequestID)          // request and correlation ids
	r.Use(middleware.AccessLog(slow))    // one log line per request
	r.Use(middleware.PrometheusMetrics)  // pelixflow_api_* metrics

Metrics are labeled with the chi route pattern ("/api/v1/lists/{listID}"),
never the raw path, so list and chat ids do not create new series.
*/
package middleware
