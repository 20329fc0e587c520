// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package dynamodb

import (
	"net/http"

	"localdynamo/internal/awsresponses"
	"localdynamo/internal/ddb"
	"localdynamo/internal/util"

	"go.uber.org/zap"
)

const (
	APIVersion   = "20111205"
	TargetPrefix = "DynamoDB_" + APIVersion
)

// Notifier is told about every namespace a mutating operation touched.
type Notifier interface {
	MarkDirty(ns string)
}

type nopNotifier struct{}

func (nopNotifier) MarkDirty(string) {}

type Handler struct {
	Namespaces *ddb.Namespaces
	Notifier   Notifier
}

func NewHandler(namespaces *ddb.Namespaces, notifier Notifier) *Handler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Handler{Namespaces: namespaces, Notifier: notifier}
}

// Dispatch handles DynamoDB JSON API requests
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	target := r.Header.Get("X-Amz-Target")
	if target == "" {
		awsresponses.WriteBadRequest(w, "MissingAuthenticationTokenException", "Missing X-Amz-Target header")
		return
	}

	op, ok := ddb.ParseOperation(util.OperationFromTarget(target))
	if !ok {
		awsresponses.WriteBadRequest(w, "UnknownOperationException", "Unknown operation: "+target)
		return
	}

	payload, err := util.ReadAWSJSON(r)
	if err != nil {
		awsresponses.WriteBadRequest(w, ddb.KindSerialization.Type(), err.Error())
		return
	}

	ns := h.Namespaces.Resolve(util.NamespaceFromContext(r.Context()))
	out, err := h.Namespaces.Get(ns).Process(op, payload)
	if err != nil {
		h.writeError(w, op, ns, err)
		return
	}

	if op.Mutating() {
		h.Notifier.MarkDirty(ns)
	}
	if err := awsresponses.WriteJSON(w, http.StatusOK, out); err != nil {
		zap.L().Error("write response", zap.String("operation", op.String()), zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op ddb.Operation, ns string, err error) {
	kind, ok := ddb.KindOf(err)
	if !ok {
		zap.L().Error("operation failed",
			zap.String("operation", op.String()),
			zap.String("namespace", ns),
			zap.Error(err),
		)
		awsresponses.WriteError(w, http.StatusInternalServerError, "InternalFailure", "internal server error")
		return
	}

	zap.L().Debug("operation rejected",
		zap.String("operation", op.String()),
		zap.String("namespace", ns),
		zap.String("kind", kind.String()),
		zap.String("message", ddb.MessageOf(err)),
	)
	awsresponses.WriteError(w, kind.StatusCode(), kind.Type(), ddb.MessageOf(err))
}
