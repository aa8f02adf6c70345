package requestctx

import (
	"context"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	rc := RequestContext{ActorID: "nurse-1", HospitalID: "stmarys", Roles: []string{"nurse"}}
	ctx := WithContext(context.Background(), rc)

	got := FromContext(ctx)
	if got.ActorID != "nurse-1" || got.HospitalID != "stmarys" {
		t.Errorf("FromContext = %+v, want %+v", got, rc)
	}
}

func TestFromContext_Missing(t *testing.T) {
	got := FromContext(context.Background())
	if got.ActorID != "" || got.HospitalID != "" || got.Roles != nil {
		t.Errorf("expected zero value, got %+v", got)
	}
}

func TestHasRole(t *testing.T) {
	rc := RequestContext{Roles: []string{"doctor", "admin"}}
	if !rc.HasRole("doctor") {
		t.Error("HasRole(doctor) = false")
	}
	if rc.HasRole("nurse") {
		t.Error("HasRole(nurse) = true")
	}
}
