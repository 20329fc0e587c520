// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dynamotest runs localdynamo in-process for Go tests and hands out
// aws-sdk-go-v2 clients bound to it.
package dynamotest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"localdynamo/internal/ddb"
	"localdynamo/internal/router"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

const Region = "us-east-1"

// Server is a localdynamo instance on a loopback port. Every caller shares
// the default namespace.
type Server struct {
	URL        string
	Namespaces *ddb.Namespaces

	tb  testing.TB
	srv *httptest.Server
}

// NewServer starts a server that is closed when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	namespaces := ddb.NewNamespaces(true)
	srv := httptest.NewServer(router.New(namespaces, nil))
	tb.Cleanup(srv.Close)
	return &Server{URL: srv.URL, Namespaces: namespaces, tb: tb, srv: srv}
}

// Catalog returns the shared catalog.
func (s *Server) Catalog() *ddb.Catalog {
	return s.Namespaces.Get(ddb.DefaultNamespace)
}

// Client returns an SDK client with static dummy credentials.
func (s *Server) Client() *dynamodb.Client {
	s.tb.Helper()
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
	)
	if err != nil {
		s.tb.Fatalf("load aws config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(s.URL)
	})
}

// CreateTable creates a table directly in the engine. A nil rangeKey makes
// a hash-only table.
func (s *Server) CreateTable(name string, hashKey ddb.KeyElement, rangeKey *ddb.KeyElement) {
	s.tb.Helper()
	in := ddb.CreateTableInput{
		TableName: name,
		KeySchema: []ddb.KeySchemaElement{{AttributeName: hashKey.Name, KeyType: ddb.KeyTypeHash}},
		AttributeDefinitions: []ddb.AttributeDefinition{
			{AttributeName: hashKey.Name, AttributeType: hashKey.Type},
		},
		ProvisionedThroughput: &ddb.ProvisionedThroughput{ReadCapacityUnits: 5, WriteCapacityUnits: 5},
	}
	if rangeKey != nil {
		in.KeySchema = append(in.KeySchema, ddb.KeySchemaElement{AttributeName: rangeKey.Name, KeyType: ddb.KeyTypeRange})
		in.AttributeDefinitions = append(in.AttributeDefinitions,
			ddb.AttributeDefinition{AttributeName: rangeKey.Name, AttributeType: rangeKey.Type})
	}
	s.process(ddb.OpCreateTable, in)
}

// Seed stores every value in table. Values are marshalled with the
// attributevalue package, so dynamodbav struct tags apply.
func (s *Server) Seed(table string, values ...any) {
	s.tb.Helper()
	for _, v := range values {
		av, err := attributevalue.MarshalMap(v)
		if err != nil {
			s.tb.Fatalf("marshal %T: %v", v, err)
		}
		rec, err := RecordFromSDK(av)
		if err != nil {
			s.tb.Fatalf("seed %s: %v", table, err)
		}
		s.process(ddb.OpPutItem, ddb.PutItemInput{TableName: table, Item: rec})
	}
}

func (s *Server) process(op ddb.Operation, in any) {
	s.tb.Helper()
	payload, err := json.Marshal(in)
	if err != nil {
		s.tb.Fatalf("%s: %v", op, err)
	}
	if _, err := s.Catalog().Process(op, payload); err != nil {
		s.tb.Fatalf("%s: %v", op, err)
	}
}

// RecordFromSDK converts an SDK item into the engine's wire record. Only the
// S, N, B, SS, NS and BS types exist in this API version.
func RecordFromSDK(item map[string]types.AttributeValue) (ddb.Record, error) {
	rec := make(ddb.Record, len(item))
	for name, av := range item {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			rec[name] = ddb.Value{"S": v.Value}
		case *types.AttributeValueMemberN:
			rec[name] = ddb.Value{"N": v.Value}
		case *types.AttributeValueMemberB:
			rec[name] = ddb.Value{"B": base64.StdEncoding.EncodeToString(v.Value)}
		case *types.AttributeValueMemberSS:
			rec[name] = ddb.Value{"SS": v.Value}
		case *types.AttributeValueMemberNS:
			rec[name] = ddb.Value{"NS": v.Value}
		case *types.AttributeValueMemberBS:
			out := make([]string, len(v.Value))
			for i, b := range v.Value {
				out[i] = base64.StdEncoding.EncodeToString(b)
			}
			rec[name] = ddb.Value{"BS": out}
		default:
			return nil, errors.Newf("attribute %q: unsupported type %T", name, av)
		}
	}
	return rec, nil
}
