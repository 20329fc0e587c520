// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package inspect serves a read-only JSON view of every namespace's tables.
package inspect

import (
	"net/http"

	"localdynamo/internal/ddb"
	"localdynamo/internal/util"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	Namespaces *ddb.Namespaces
}

// New returns the echo app serving /, /:table, /:table/items and
// /:table/stats. The namespace comes from ?ns=, else from the caller.
func New(namespaces *ddb.Namespaces) *echo.Echo {
	h := &Handler{Namespaces: namespaces}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/", h.ListTables)
	e.GET("/:table", h.DescribeTable)
	e.GET("/:table/items", h.Items)
	e.GET("/:table/stats", h.Stats)
	return e
}

type tableList struct {
	Namespace  string   `json:"namespace"`
	Namespaces []string `json:"namespaces"`
	Tables     []string `json:"tables"`
}

func (h *Handler) namespace(c echo.Context) string {
	if ns := c.QueryParam("ns"); ns != "" {
		return h.Namespaces.Resolve(ns)
	}
	return h.Namespaces.Resolve(util.NamespaceFromContext(c.Request().Context()))
}

// catalog never creates a namespace; unknown ones read as empty.
func (h *Handler) catalog(c echo.Context) (string, *ddb.Catalog) {
	ns := h.namespace(c)
	cat, ok := h.Namespaces.Lookup(ns)
	if !ok {
		return ns, ddb.NewCatalog()
	}
	return ns, cat
}

func (h *Handler) ListTables(c echo.Context) error {
	ns, cat := h.catalog(c)
	return c.JSON(http.StatusOK, tableList{
		Namespace:  ns,
		Namespaces: h.Namespaces.Names(),
		Tables:     cat.TableNames(),
	})
}

func (h *Handler) DescribeTable(c echo.Context) error {
	_, cat := h.catalog(c)
	desc, err := cat.Describe(c.Param("table"))
	if err != nil {
		return tableError(err)
	}
	return c.JSON(http.StatusOK, desc)
}

func (h *Handler) Items(c echo.Context) error {
	_, cat := h.catalog(c)
	items, err := cat.Items(c.Param("table"))
	if err != nil {
		return tableError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Stats(c echo.Context) error {
	_, cat := h.catalog(c)
	stats, err := cat.Stats(c.Param("table"))
	if err != nil {
		return tableError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func tableError(err error) error {
	if ddb.IsKind(err, ddb.KindResourceNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ddb.MessageOf(err))
	}
	return echo.NewHTTPError(http.StatusBadRequest, ddb.MessageOf(err))
}
