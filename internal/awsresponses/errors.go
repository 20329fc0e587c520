// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package awsresponses

import "net/http"

// ErrorResponse is the JSON protocol error envelope
type ErrorResponse struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// WriteError writes an error envelope. errType is the full
// "<namespace>#<Code>" name or a bare code.
func WriteError(w http.ResponseWriter, status int, errType, message string) error {
	return WriteJSON(w, status, ErrorResponse{Type: errType, Message: message})
}

// WriteBadRequest writes a 400 error envelope
func WriteBadRequest(w http.ResponseWriter, errType, message string) error {
	return WriteError(w, http.StatusBadRequest, errType, message)
}
