package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/petasbytes/toolgraph/tools"
)

// invoke marshals in and runs def the way the router does.
func invoke(t *testing.T, def tools.ToolDefinition, in any) tools.Result {
	t.Helper()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	return def.Function(context.Background(), b)
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func httpOpts(srv *httptest.Server) *tools.HTTPOptions {
	return &tools.HTTPOptions{Client: srv.Client(), UserAgent: "toolgraph-test"}
}

func wantCode(t *testing.T, res tools.Result, code tools.ErrorCode) {
	t.Helper()
	if res.Code() != code {
		t.Fatalf("code: got %q want %q (content=%q)", res.Code(), code, res.Content())
	}
}
