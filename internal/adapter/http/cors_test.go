package httpadapter

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func TestApplyCORSHeaders(t *testing.T) {
	ctx := &app.RequestContext{}
	applyCORSHeaders(ctx)

	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "*"; got != want {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), corsAllowMethods; got != want {
		t.Fatalf("allow-methods mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Headers")), corsAllowHeaders; got != want {
		t.Fatalf("allow-headers mismatch: got=%q want=%q", got, want)
	}
}

func TestCORSMiddlewareShortCircuitsPreflight(t *testing.T) {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(consts.MethodOptions)

	corsMiddleware()(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got != consts.StatusNoContent {
		t.Fatalf("preflight status: got=%d want=%d", got, consts.StatusNoContent)
	}
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Fatalf("preflight must carry CORS headers, got %q", got)
	}
}

func TestCORSMiddlewarePassesThroughNonPreflight(t *testing.T) {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(consts.MethodGet)

	corsMiddleware()(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got == consts.StatusNoContent {
		t.Fatalf("non-preflight request must not be aborted")
	}
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Headers")); got != corsAllowHeaders {
		t.Fatalf("allow-headers mismatch: got=%q want=%q", got, corsAllowHeaders)
	}
}
