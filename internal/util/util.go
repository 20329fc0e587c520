// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package util

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// ReadAWSJSON drains the request body and checks that it is a JSON
// document. An empty body reads as an empty object.
func ReadAWSJSON(r *http.Request) (json.RawMessage, error) {
	body := r.Body
	defer body.Close()

	// Always drain the body
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(data) {
		return nil, errors.New("request body is not valid JSON")
	}
	return json.RawMessage(data), nil
}

// OperationFromTarget returns the operation named by an X-Amz-Target
// header such as "DynamoDB_20111205.PutItem".
func OperationFromTarget(target string) string {
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		return target[i+1:]
	}
	return target
}
