package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"npcforge/internal/app/ports"
	"npcforge/internal/app/realm"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func TestRequireAdmin_KeyUnsetAllowsAnyCaller(t *testing.T) {
	h := Handler{}
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(adminIDHeader, "ops-1")

	adminID, err := h.requireAdmin(ctx)
	if err != nil {
		t.Fatalf("requireAdmin error: %v", err)
	}
	if adminID != "ops-1" {
		t.Fatalf("unexpected admin id: %q", adminID)
	}
}

func TestRequireAdmin_MissingKey(t *testing.T) {
	h := Handler{AdminKey: "secret"}
	ctx := &app.RequestContext{}

	_, err := h.requireAdmin(ctx)
	if err != ErrMissingAdminKey {
		t.Fatalf("expected ErrMissingAdminKey, got %v", err)
	}
}

func TestRequireAdmin_WrongKey(t *testing.T) {
	h := Handler{AdminKey: "secret"}
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(adminKeyHeader, "wrong")

	_, err := h.requireAdmin(ctx)
	if err != ErrInvalidAdminKey {
		t.Fatalf("expected ErrInvalidAdminKey, got %v", err)
	}
}

func TestRequireAdmin_CorrectKey(t *testing.T) {
	h := Handler{AdminKey: "secret"}
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(adminIDHeader, "ops-2")
	ctx.Request.Header.Set(adminKeyHeader, "secret")

	adminID, err := h.requireAdmin(ctx)
	if err != nil {
		t.Fatalf("requireAdmin error: %v", err)
	}
	if adminID != "ops-2" {
		t.Fatalf("unexpected admin id: %q", adminID)
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing admin key", ErrMissingAdminKey, consts.StatusUnauthorized, "missing_admin_key"},
		{"invalid admin key", ErrInvalidAdminKey, consts.StatusUnauthorized, "invalid_admin_key"},
		{"locked flag", fmt.Errorf("toggle: %w", ports.ErrLockedFlag), consts.StatusLocked, "flag_locked"},
		{"config not found", fmt.Errorf("plan: %w", ports.ErrConfigNotFound), consts.StatusNotFound, "config_not_found"},
		{"invalid request", fmt.Errorf("%w: no world id", realm.ErrInvalidRequest), consts.StatusBadRequest, "bad_request"},
		{"saga failed", fmt.Errorf("create: %w", ports.ErrSagaFailed), consts.StatusInternalServerError, "saga_failed"},
		{"location unavailable", fmt.Errorf("place: %w", ports.ErrLocationUnavailable), consts.StatusConflict, "location_unavailable"},
		{"not found", ports.ErrNotFound, consts.StatusNotFound, "not_found"},
		{"conflict", ports.ErrConflict, consts.StatusConflict, "conflict"},
		{"unknown", errors.New("boom"), consts.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := &app.RequestContext{}
			writeError(ctx, tc.err)

			if got := ctx.Response.StatusCode(); got != tc.wantStatus {
				t.Fatalf("status mismatch: got=%d want=%d", got, tc.wantStatus)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
				t.Fatalf("unmarshal body: %v", err)
			}
			if body.Error.Code != tc.wantCode {
				t.Fatalf("code mismatch: got=%q want=%q", body.Error.Code, tc.wantCode)
			}
		})
	}
}
