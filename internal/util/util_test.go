// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package util_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"localdynamo/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceFromHeader(t *testing.T) {
	cases := []struct {
		name      string
		userAgent string
		auth      string
		want      string
	}{
		{"default", "", "", "default"},
		{"user agent", "aws-sdk-go-v2/1.30.3 custom-team1", "", "team1"},
		{"user agent wins", "aws-sdk-go-v2/1.30.3 custom-team1", sigv4("AKIDEXAMPLE"), "team1"},
		{"access key", "aws-sdk-go-v2/1.30.3", sigv4("AKIDEXAMPLE"), "AKIDEXAMPLE"},
		{"bare prefix", "custom-", "", "default"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			if tc.userAgent != "" {
				r.Header.Set("User-Agent", tc.userAgent)
			}
			if tc.auth != "" {
				r.Header.Set("Authorization", tc.auth)
			}
			assert.Equal(t, tc.want, util.NamespaceFromHeader(r))
		})
	}
}

func sigv4(key string) string {
	return "AWS4-HMAC-SHA256 Credential=" + key + "/20250101/us-east-1/dynamodb/aws4_request, " +
		"SignedHeaders=host;x-amz-date, Signature=abc"
}

func TestNamespaceContext(t *testing.T) {
	assert.Equal(t, "default", util.NamespaceFromContext(context.Background()))
	ctx := util.WithNamespace(context.Background(), "ns1")
	assert.Equal(t, "ns1", util.NamespaceFromContext(ctx))
}

func TestReadAWSJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	raw, err := util.ReadAWSJSON(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"TableName": "T"}`))
	raw, err = util.ReadAWSJSON(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"TableName": "T"}`, string(raw))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"TableName": `))
	_, err = util.ReadAWSJSON(r)
	assert.Error(t, err)
}

func TestOperationFromTarget(t *testing.T) {
	assert.Equal(t, "PutItem", util.OperationFromTarget("DynamoDB_20111205.PutItem"))
	assert.Equal(t, "Scan", util.OperationFromTarget("DynamoDB_20120810.Scan"))
	assert.Equal(t, "Query", util.OperationFromTarget("Query"))
}
