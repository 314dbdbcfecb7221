// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

/*
Package api provides the HTTP surface of the recommendation service.

Routes are served by a chi router. Every response, including errors,
uses the models.APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "...", "message": "..."}}

Endpoints:

	GET       /                    service index
	GET       /health              readiness report
	GET       /version             model and API version
	GET,POST  /train               load data and train a new model
	GET       /recommend/{userID}  top-n recommendations (?n=10)
	POST      /test                batch recommendations with success metrics
	POST      /login               exchange credentials for a bearer token
	GET       /metrics             Prometheus exposition

/train requires a bearer token when security.auth_required is set.

Engine errors map to status codes as follows: unknown user 404, model not
trained 400, invalid input 400, training already running 409, anything
else 500.
*/
package api
