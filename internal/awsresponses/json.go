// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package awsresponses

import (
	"encoding/json"
	"hash/crc32"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ContentType is the media type of the JSON protocol.
const ContentType = "application/x-amz-json-1.0"

// WriteJSON marshals v and writes it with the protocol headers. The body is
// checksummed in X-Amz-Crc32, which SDK clients verify.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode response")
	}

	WriteAWSHeaders(w)
	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("X-Amz-Crc32", strconv.FormatUint(uint64(crc32.ChecksumIEEE(body)), 10))

	w.WriteHeader(status)
	_, err = w.Write(body)
	return errors.WithStack(err)
}
