package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dicegame/dice-api/internal/core/domain"
)

func newTestPlayerService(t *testing.T) (*PlayerService, *CredentialStore, *recordingAudit) {
	t.Helper()
	creds, _ := newTestCredentialStore()
	audit := &recordingAudit{}
	return NewPlayerService(creds, audit, discardLogger), creds, audit
}

func TestPlayerService_List_Empty(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if users == nil {
		t.Error("want non-nil slice")
	}
}

func TestPlayerService_Rename(t *testing.T) {
	svc, creds, audit := newTestPlayerService(t)
	u := mustCreate(t, creds, "alice", "pw")
	me := domain.Principal{Subject: u.ID, Roles: u.Roles}

	renamed, err := svc.Rename(context.Background(), me, u.ID, "Lucky 7 Alice")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.DisplayName != "LuckyAlice" {
		t.Errorf("want normalised name LuckyAlice, got %q", renamed.DisplayName)
	}
	if got := audit.actions(); len(got) != 1 || got[0] != domain.AuditUserRenamed {
		t.Errorf("audit: want [user.renamed], got %v", got)
	}
}

func TestPlayerService_Rename_BlankBecomesAnonymous(t *testing.T) {
	svc, creds, _ := newTestPlayerService(t)
	u := mustCreate(t, creds, "alice", "pw")

	renamed, err := svc.Rename(context.Background(), domain.Principal{Subject: u.ID}, u.ID, " 123 ")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.DisplayName != domain.AnonymousName {
		t.Errorf("want %q, got %q", domain.AnonymousName, renamed.DisplayName)
	}
}

func TestPlayerService_Rename_OtherPlayerForbidden(t *testing.T) {
	svc, creds, _ := newTestPlayerService(t)
	u := mustCreate(t, creds, "alice", "pw")
	other := mustCreate(t, creds, "bob", "pw")

	_, err := svc.Rename(context.Background(), domain.Principal{Subject: other.ID, Roles: other.Roles}, u.ID, "Bob")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("want ErrForbidden, got %v", err)
	}
}

func TestPlayerService_SetDisabled(t *testing.T) {
	svc, creds, audit := newTestPlayerService(t)
	u := mustCreate(t, creds, "alice", "pw")
	root := mustCreate(t, creds, "root", "pw", domain.RoleAdmin)
	adminP := domain.Principal{Subject: root.ID, Roles: root.Roles}

	if err := svc.SetDisabled(context.Background(), domain.Principal{Subject: u.ID, Roles: u.Roles}, u.ID, true); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("player: want ErrForbidden, got %v", err)
	}
	if err := svc.SetDisabled(context.Background(), adminP, root.ID, true); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self-disable: want ErrValidation, got %v", err)
	}
	if err := svc.SetDisabled(context.Background(), adminP, u.ID, true); err != nil {
		t.Fatalf("disable: %v", err)
	}

	got, _ := svc.Get(context.Background(), u.ID)
	if !got.Disabled {
		t.Error("user must be disabled")
	}

	if err := svc.SetDisabled(context.Background(), adminP, u.ID, false); err != nil {
		t.Fatalf("enable: %v", err)
	}
	got, _ = svc.Get(context.Background(), u.ID)
	if got.Disabled {
		t.Error("user must be enabled again")
	}

	acts := audit.actions()
	if len(acts) != 2 || acts[0] != domain.AuditUserDisabled || acts[1] != domain.AuditUserEnabled {
		t.Errorf("audit: want [user.disabled user.enabled], got %v", acts)
	}
}

func TestPlayerService_SetDisabled_UnknownUser(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	if err := svc.SetDisabled(context.Background(), admin, "missing", true); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("want ErrUserNotFound, got %v", err)
	}
}
