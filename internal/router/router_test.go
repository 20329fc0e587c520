// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"localdynamo/internal/ddb"
	"localdynamo/internal/router"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const createTable = `{
	"TableName": "users",
	"KeySchema": [{"AttributeName": "id", "KeyType": "HASH"}],
	"ProvisionedThroughput": {"ReadCapacityUnits": 1, "WriteCapacityUnits": 1}
}`

const authorization = "AWS4-HMAC-SHA256 Credential=AKIDALICE/20250101/us-east-1/dynamodb/aws4_request, SignedHeaders=host, Signature=abc"

type dirtyLog struct{ marked []string }

func (d *dirtyLog) MarkDirty(ns string) { d.marked = append(d.marked, ns) }

// ───────────────────────────────────────────────────────────
// ROUTING TESTS
// ───────────────────────────────────────────────────────────

func TestRouter_DynamoDBRoute(t *testing.T) {
	namespaces := ddb.NewNamespaces(false)
	dirty := &dirtyLog{}
	e := router.New(namespaces, dirty)

	req := httptest.NewRequest("POST", "/", strings.NewReader(createTable))
	req.Header.Set("X-Amz-Target", "DynamoDB_20111205.CreateTable")
	req.Header.Set("Authorization", authorization)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if names := namespaces.Get("AKIDALICE").TableNames(); len(names) != 1 || names[0] != "users" {
		t.Fatalf("table not created in caller namespace: %v", names)
	}
	if len(dirty.marked) != 1 || dirty.marked[0] != "AKIDALICE" {
		t.Fatalf("unexpected dirty namespaces: %v", dirty.marked)
	}
}

func TestRouter_UserAgentNamespace(t *testing.T) {
	namespaces := ddb.NewNamespaces(false)
	e := router.New(namespaces, nil)

	req := httptest.NewRequest("POST", "/", strings.NewReader(createTable))
	req.Header.Set("X-Amz-Target", "DynamoDB_20111205.CreateTable")
	req.Header.Set("Authorization", authorization)
	req.Header.Set("User-Agent", "aws-sdk-go-v2/1.30.3 os/linux custom-team1")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := namespaces.Lookup("team1"); !ok {
		t.Fatalf("expected namespace team1, have %v", namespaces.Names())
	}
}

func TestRouter_RootRedirectsToInspect(t *testing.T) {
	e := router.New(ddb.NewNamespaces(false), nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != 302 {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != router.InspectPrefix {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestRouter_InspectRoute(t *testing.T) {
	namespaces := ddb.NewNamespaces(false)
	e := router.New(namespaces, nil)

	req := httptest.NewRequest("POST", "/", strings.NewReader(createTable))
	req.Header.Set("X-Amz-Target", "DynamoDB_20111205.CreateTable")
	e.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/-/users", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"TableName":"users"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_UnknownPathAndMethod(t *testing.T) {
	e := router.New(ddb.NewNamespaces(false), nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("POST", "/tables", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("DELETE", "/", nil))
	if rec.Code != 405 {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRouter_LogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	e := router.New(ddb.NewNamespaces(false), nil)

	req := httptest.NewRequest("POST", "/", strings.NewReader(createTable))
	req.Header.Set("X-Amz-Target", "DynamoDB_20111205.CreateTable")
	req.Header.Set("Authorization", authorization)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "CreateTable" || fields["namespace"] != "AKIDALICE" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["status"] != int64(200) {
		t.Fatalf("unexpected status: %v", fields["status"])
	}
	if fields["request_id"] == "" || fields["request_id"] != rec.Header().Get("X-Amzn-Requestid") {
		t.Fatalf("request id not logged: %v", fields["request_id"])
	}
}
