package authoritystore

import (
	"context"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestService(ids []string) (*Service, *memory.Store) {
	store := memory.New()
	svc := New(store, store, fixedClock{t: time.Now().UTC()}, &idgen.Sequence{IDs: ids})
	return svc, store
}

func TestCreateEnterprise_AppendsAuditOnSuccess(t *testing.T) {
	svc, store := newTestService([]string{"AUDIT-1"})
	actor := Actor{ActorID: "admin@example.com", ActorRole: domain.ActorSuperAdmin}

	_, err := svc.CreateEnterprise(context.Background(), actor, domain.Enterprise{
		EnterpriseID: "ENT-1", Name: "Acme", Type: domain.EnterpriseReal, Status: domain.EnterpriseActive,
	})
	if err != nil {
		t.Fatalf("CreateEnterprise: %v", err)
	}

	entries, err := store.ListByActor(context.Background(), actor.ActorID, 10)
	if err != nil {
		t.Fatalf("ListByActor: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Action != "CREATE_ENTERPRISE" || !entries[0].Success {
		t.Fatalf("unexpected audit entry: %+v", entries[0])
	}
}

func TestUpdateWorkspace_AppendsFailureAuditOnReassignmentAttempt(t *testing.T) {
	svc, store := newTestService([]string{"AUDIT-1", "AUDIT-2"})
	actor := Actor{ActorID: "admin@example.com", ActorRole: domain.ActorEnterpriseAdmin}

	store.CreateEnterprise(context.Background(), domain.Enterprise{EnterpriseID: "ENT-1"})
	store.CreateEnterprise(context.Background(), domain.Enterprise{EnterpriseID: "ENT-2"})
	if _, err := svc.CreateWorkspace(context.Background(), actor, domain.Workspace{WorkspaceID: "WS-1", EnterpriseID: "ENT-1"}); err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}

	_, err := svc.UpdateWorkspace(context.Background(), actor, domain.Workspace{WorkspaceID: "WS-1", EnterpriseID: "ENT-2"})
	if !kerrors.Is(err, kerrors.CodeWorkspaceReassignmentForbidden) {
		t.Fatalf("expected CodeWorkspaceReassignmentForbidden, got %v", err)
	}

	entries, err := store.ListByActor(context.Background(), actor.ActorID, 10)
	if err != nil {
		t.Fatalf("ListByActor: %v", err)
	}
	var sawFailedUpdate bool
	for _, e := range entries {
		if e.Action == "UPDATE_WORKSPACE" && !e.Success {
			sawFailedUpdate = true
		}
	}
	if !sawFailedUpdate {
		t.Fatal("expected a failed UPDATE_WORKSPACE audit entry")
	}
}

func TestSetPolicyStatus_AuditRecordsNewStatus(t *testing.T) {
	svc, store := newTestService([]string{"AUDIT-1", "AUDIT-2"})
	actor := Actor{ActorID: "admin@example.com", ActorRole: domain.ActorEnterpriseAdmin}

	store.CreatePolicy(context.Background(), domain.Policy{PolicyID: "POL-1", PersonaID: "P-1", Status: domain.PolicyDraft})
	if _, err := svc.SetPolicyStatus(context.Background(), actor, "POL-1", domain.PolicyActive); err != nil {
		t.Fatalf("SetPolicyStatus: %v", err)
	}

	entries, err := store.ListByActor(context.Background(), actor.ActorID, 10)
	if err != nil {
		t.Fatalf("ListByActor: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Action == "SET_POLICY_STATUS" && e.Metadata["status"] == string(domain.PolicyActive) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected SET_POLICY_STATUS audit entry to record the new status")
	}
}
