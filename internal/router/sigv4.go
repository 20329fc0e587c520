// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router

import (
	"net/http"

	"localdynamo/internal/util"
)

// SigV4Middleware resolves the caller namespace from the User-Agent and the
// SigV4 credential scope. Signatures are not verified.
func SigV4Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ns := util.NamespaceFromHeader(r)
		next.ServeHTTP(w, r.WithContext(util.WithNamespace(r.Context(), ns)))
	})
}
