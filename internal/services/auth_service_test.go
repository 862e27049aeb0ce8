package services

import (
	"context"
	"errors"
	"testing"

	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/models"
)

func stubSigner(uid, role, email string) (string, error) {
	return "token:" + uid + ":" + role + ":" + email, nil
}

func TestCreateUserAndLogin(t *testing.T) {
	store := db.NewMemoryStore()
	svc := NewAuthService(store, stubSigner)
	svc.idGen = func(prefix string, n int) string { return prefix + "fixed" }
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "  Ada@Example.COM ", "s3cret", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != "ufixed" || u.Email != "ada@example.com" || u.Role != models.RoleAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
	if string(u.PassHash) == "s3cret" {
		t.Fatalf("password stored in clear")
	}

	res, err := svc.Login(ctx, "ADA@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "token:ufixed:admin:ada@example.com" {
		t.Fatalf("token = %q", res.Token)
	}
	if res.User.ID != "ufixed" || res.User.Role != models.RoleAdmin {
		t.Fatalf("user view = %+v", res.User)
	}

	me, err := svc.Me(ctx, &Principal{ID: "ufixed"})
	if err != nil || me.Email != "ada@example.com" {
		t.Fatalf("Me = %+v, %v", me, err)
	}
}

func TestCreateUserRejects(t *testing.T) {
	svc := NewAuthService(db.NewMemoryStore(), stubSigner)
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, "a@b.c", "pw", models.RoleUser); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := svc.CreateUser(ctx, "A@B.C", "other", "")
	wantReason(t, err, ErrorConflict, ReasonEmailExists)
	_, err = svc.CreateUser(ctx, "x@y.z", "pw", "owner")
	wantReason(t, err, ErrorInvalid, ReasonValidation)
	_, err = svc.CreateUser(ctx, "", "pw", "")
	wantReason(t, err, ErrorInvalid, ReasonValidation)
	_, err = svc.CreateUser(ctx, "x@y.z", "  ", "")
	wantReason(t, err, ErrorInvalid, ReasonValidation)
}

func TestLoginFailures(t *testing.T) {
	svc := NewAuthService(db.NewMemoryStore(), stubSigner)
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, "a@b.c", "right", ""); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := svc.Login(ctx, "a@b.c", "wrong")
	wantReason(t, err, ErrorUnauthorized, ReasonInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@b.c", "right")
	wantReason(t, err, ErrorUnauthorized, ReasonInvalidCredentials)
	_, err = svc.Login(ctx, "a@b.c", "")
	wantReason(t, err, ErrorInvalid, ReasonValidation)

	failing := NewAuthService(db.NewMemoryStore(), func(string, string, string) (string, error) {
		return "", errors.New("signing failed")
	})
	_, _ = failing.CreateUser(ctx, "a@b.c", "right", "")
	if _, err := failing.Login(ctx, "a@b.c", "right"); err == nil || err.Error() != "signing failed" {
		t.Fatalf("signer error not surfaced: %v", err)
	}
}

func TestMeRequiresStoredUser(t *testing.T) {
	svc := NewAuthService(db.NewMemoryStore(), stubSigner)
	_, err := svc.Me(context.Background(), nil)
	wantReason(t, err, ErrorUnauthorized, ReasonUnauthenticated)
	_, err = svc.Me(context.Background(), &Principal{ID: "ghost"})
	wantReason(t, err, ErrorNotFound, ReasonUserNotFound)
}
