// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router

import (
	"net/http"

	"localdynamo/internal/api/dynamodb"
	"localdynamo/internal/api/inspect"
	"localdynamo/internal/ddb"
)

// InspectPrefix mounts the read-only inspection API.
const InspectPrefix = "/-/"

// New wires the routes:
//
//	POST /       → DynamoDB JSON API (X-Amz-Target dispatch)
//	GET  /       → redirect to the inspection API
//	GET  /-/...  → inspection API
func New(namespaces *ddb.Namespaces, notifier dynamodb.Notifier) http.Handler {
	mux := http.NewServeMux()

	dynamoh := dynamodb.NewHandler(namespaces, notifier)
	inspecth := inspect.New(namespaces)

	// Apply middleware
	handler := SigV4Middleware(DebugLoggerMiddleware(mux))

	mux.Handle(InspectPrefix, http.StripPrefix(InspectPrefix[:len(InspectPrefix)-1], inspecth))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodPost:
			dynamoh.Dispatch(w, r)
		case http.MethodGet, http.MethodHead:
			http.Redirect(w, r, InspectPrefix, http.StatusFound)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return handler
}
