// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package util

import (
	"context"
	"net/http"
	"strings"
)

// DefaultNamespace is used when a request carries no identity.
const DefaultNamespace = "default"

type namespaceKey struct{}

// NamespaceFromHeader resolves the caller namespace: a trailing "custom-<ns>"
// User-Agent token wins, then the SigV4 access key id, then "default".
func NamespaceFromHeader(r *http.Request) string {
	// User-Agent format: "aws-sdk-go-v2/1.30.3 os/linux lang/go#1.25 custom-namespace"
	// We want the last token after the last space
	userAgent := r.Header.Get("User-Agent")
	if userAgent != "" {
		parts := strings.Fields(userAgent)
		if len(parts) > 0 {
			lastPart := parts[len(parts)-1]
			if strings.HasPrefix(lastPart, "custom-") && len(lastPart) > len("custom-") {
				return strings.TrimPrefix(lastPart, "custom-")
			}
		}
	}

	if key := AccessKeyFromAuthorization(r.Header.Get("Authorization")); key != "" {
		return key
	}
	return DefaultNamespace
}

// AccessKeyFromAuthorization extracts the access key id from a SigV4
// Authorization header:
//
//	AWS4-HMAC-SHA256 Credential=AKID/20250101/us-east-1/dynamodb/aws4_request, SignedHeaders=..., Signature=...
func AccessKeyFromAuthorization(header string) string {
	_, rest, ok := strings.Cut(header, "Credential=")
	if !ok {
		return ""
	}
	cred, _, _ := strings.Cut(rest, ",")
	key, _, _ := strings.Cut(strings.TrimSpace(cred), "/")
	return key
}

// WithNamespace stores the namespace on the request context.
func WithNamespace(ctx context.Context, ns string) context.Context {
	return context.WithValue(ctx, namespaceKey{}, ns)
}

// NamespaceFromContext returns the namespace stored by WithNamespace, or
// "default".
func NamespaceFromContext(ctx context.Context) string {
	if ns, ok := ctx.Value(namespaceKey{}).(string); ok && ns != "" {
		return ns
	}
	return DefaultNamespace
}
