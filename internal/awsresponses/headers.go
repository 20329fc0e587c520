// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package awsresponses

import (
	"net/http"
	"time"
)

// RequestIDHeader carries the id of every response.
const RequestIDHeader = "X-Amzn-Requestid"

// WriteAWSHeaders sets the headers common to every response and returns the
// request id it generated.
func WriteAWSHeaders(w http.ResponseWriter) string {
	h := w.Header()
	id := NextRequestID()

	h.Set("Server", "localdynamo")
	// AWS expects GMT, not UTC. RFC1123 uses UTC, so we format manually with GMT
	h.Set("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	h.Set(RequestIDHeader, id)
	return id
}
