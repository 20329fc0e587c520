// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package awsresponses_test

import (
	"encoding/json"
	"hash/crc32"
	"net/http/httptest"
	"strconv"
	"testing"

	"localdynamo/internal/awsresponses"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := awsresponses.WriteJSON(rec, 200, map[string]any{"TableNames": []string{"a"}})
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, awsresponses.ContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"TableNames": ["a"]}`, rec.Body.String())

	sum := strconv.FormatUint(uint64(crc32.ChecksumIEEE(rec.Body.Bytes())), 10)
	assert.Equal(t, sum, rec.Header().Get("X-Amz-Crc32"))
	assert.NotEmpty(t, rec.Header().Get(awsresponses.RequestIDHeader))
}

func TestRequestIDSequence(t *testing.T) {
	id1 := awsresponses.NextRequestID()
	id2 := awsresponses.NextRequestID()

	if id1 == id2 {
		t.Fatalf("request IDs must be unique")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	err := awsresponses.WriteBadRequest(rec, "com.amazonaws.dynamodb.v20111205#ValidationException", "bad")
	require.NoError(t, err)

	assert.Equal(t, 400, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "com.amazonaws.dynamodb.v20111205#ValidationException", body["__type"])
	assert.Equal(t, "bad", body["message"])
}
