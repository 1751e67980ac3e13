package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vnkhanh/onboarding-backend/models"
)

func TestCreateAccount(t *testing.T) {
	db := newTestDB(t)
	managerProfile := createProfile(t, db, "Gestão", models.RoleManager)
	createProfile(t, db, "QA", models.RoleMember)
	manager := createAccount(t, db, "gestor@vivo.com.br", "Gestor@123", managerProfile, true)
	mailer := &captureMailer{}
	svc := NewAccountService(db, mailer, "http://localhost:5173", discardLogger())
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, CreateAccountInput{
		Email: "Nova.Pessoa@vivo.com.br", FullName: "Nova Pessoa", Password: "Senha@123",
		Profile: "QA", ManagerID: &manager.ID, JobTitle: "Analista de Qualidade",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if acc.Email != "nova.pessoa@vivo.com.br" || !acc.FirstLogin || !acc.Active || acc.Role() != models.RoleMember {
		t.Fatalf("unexpected account %+v", acc)
	}
	if msgs := mailer.messages(); len(msgs) != 1 || msgs[0].to != acc.Email {
		t.Fatalf("expected welcome email, got %+v", msgs)
	}

	_, err = svc.CreateAccount(ctx, CreateAccountInput{Email: "nova.pessoa@vivo.com.br", FullName: "x", Password: "Senha@123", Profile: "QA"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	_, err = svc.CreateAccount(ctx, CreateAccountInput{Email: "a@vivo.com.br", FullName: "x", Password: "Senha@123", Profile: "Marketing"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown profile, got %v", err)
	}
	ghost := uuid.New()
	_, err = svc.CreateAccount(ctx, CreateAccountInput{Email: "b@vivo.com.br", FullName: "x", Password: "Senha@123", Profile: "QA", ManagerID: &ghost})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown manager, got %v", err)
	}

	subs, err := svc.Subordinates(ctx, manager.ID)
	if err != nil {
		t.Fatalf("Subordinates: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != acc.ID {
		t.Fatalf("unexpected subordinates %+v", subs)
	}
}

func TestResolveAccountAndDirectory(t *testing.T) {
	db := newTestDB(t)
	adminProfile := createProfile(t, db, "Administrador", models.RoleAdmin)
	qa := createProfile(t, db, "QA", models.RoleMember)
	createAccount(t, db, "admin@vivo.com.br", "Admin@123", adminProfile, true)
	member := createAccount(t, db, "qa@vivo.com.br", "Senha@123", qa, true)
	createAccount(t, db, "gone@vivo.com.br", "Senha@123", qa, false)
	svc := NewAccountService(db, nil, "", discardLogger())
	ctx := context.Background()

	byID, err := svc.ResolveAccount(ctx, member.ID.String())
	if err != nil || byID.Email != "qa@vivo.com.br" || byID.Profile.Name != "QA" {
		t.Fatalf("resolve by id: %+v, %v", byID, err)
	}
	byEmail, err := svc.ResolveAccount(ctx, "QA@VIVO.com.br")
	if err != nil || byEmail.ID != member.ID {
		t.Fatalf("resolve by email: %+v, %v", byEmail, err)
	}
	if _, err := svc.ResolveAccount(ctx, "nope"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.ResolveAccount(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	dir, err := svc.ListDirectory(ctx)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(dir) != 1 || dir[0].ID != member.ID {
		t.Fatalf("directory should list only active non-admin accounts, got %+v", dir)
	}
}
