package domain

import (
	"testing"
	"time"
)

func TestScopeForVisibilityGrid(t *testing.T) {
	owner := &User{ID: "author-1", Role: RoleAuthor, Active: true}
	other := &User{ID: "author-2", Role: RoleAuthor, Active: true}
	admin := &User{ID: "admin-1", Role: RoleAdmin, Active: true}
	unknown := &User{ID: "ghost", Role: UserRole("editor"), Active: true}

	statuses := []BookStatus{StatusPending, StatusApproved, StatusRejected}
	for _, status := range statuses {
		book := Book{ID: "b1", OwnerID: owner.ID, Status: status}

		if !CanView(owner, book) {
			t.Fatalf("owner should see own %s book", status)
		}
		if CanView(other, book) {
			t.Fatalf("other author should not see %s book of someone else", status)
		}
		if !CanView(admin, book) {
			t.Fatalf("admin should see %s book", status)
		}
		if CanView(unknown, book) {
			t.Fatalf("unrecognized role must fail closed for %s book", status)
		}
		anonymousSees := CanView(nil, book)
		if status == StatusApproved && !anonymousSees {
			t.Fatalf("anonymous should see approved book")
		}
		if status != StatusApproved && anonymousSees {
			t.Fatalf("anonymous should not see %s book", status)
		}
	}
}

func TestInitialStatusByRole(t *testing.T) {
	if got := InitialStatus(RoleAuthor); got != StatusPending {
		t.Fatalf("author submission should start pending, got %s", got)
	}
	if got := InitialStatus(RoleAdmin); got != StatusApproved {
		t.Fatalf("admin submission should start approved, got %s", got)
	}
	if got := InitialStatus(UserRole("editor")); got != StatusPending {
		t.Fatalf("unknown role should start pending, got %s", got)
	}
}

func TestMutationPermissions(t *testing.T) {
	owner := User{ID: "author-1", Role: RoleAuthor}
	other := User{ID: "author-2", Role: RoleAuthor}
	admin := User{ID: "admin-1", Role: RoleAdmin}
	unknown := User{ID: "ghost", Role: UserRole("editor")}
	book := Book{ID: "b1", OwnerID: owner.ID, Status: StatusPending}

	if !CanUpdate(owner, book) || !CanUpdate(admin, book) {
		t.Fatalf("owner and admin should be able to update")
	}
	if CanUpdate(other, book) || CanUpdate(unknown, book) {
		t.Fatalf("non-owner author and unknown role must not update")
	}
	if CanDelete(owner) || CanDelete(other) || CanDelete(unknown) {
		t.Fatalf("only admin may delete")
	}
	if !CanDelete(admin) || !CanSetStatus(admin) {
		t.Fatalf("admin should delete and moderate")
	}
	if CanSetStatus(owner) {
		t.Fatalf("author must not self-moderate")
	}
	if !CanCreate(owner) || !CanCreate(admin) {
		t.Fatalf("author and admin may create")
	}
	if CanCreate(unknown) {
		t.Fatalf("unknown role must not create")
	}
}

func TestOwnerEditResetsToPendingAndClearsReason(t *testing.T) {
	now := time.Now().UTC()
	book := Book{Status: StatusRejected, RejectionReason: "low quality scans"}
	ApplyOwnerEdit(&book, now)
	if book.Status != StatusPending {
		t.Fatalf("edit should re-enter review, got %s", book.Status)
	}
	if book.RejectionReason != "" {
		t.Fatalf("edit should clear rejection reason, got %q", book.RejectionReason)
	}
}

func TestStatusChangeReasonHandling(t *testing.T) {
	now := time.Now().UTC()
	book := Book{Status: StatusPending}

	ApplyStatusChange(&book, StatusRejected, "  missing ISBN  ", now)
	if book.Status != StatusRejected || book.RejectionReason != "missing ISBN" {
		t.Fatalf("rejection should store trimmed reason, got %q", book.RejectionReason)
	}

	ApplyStatusChange(&book, StatusApproved, "ignored", now)
	if book.RejectionReason != "" {
		t.Fatalf("approval must clear reason, got %q", book.RejectionReason)
	}

	// Approving twice stays clean.
	ApplyStatusChange(&book, StatusApproved, "", now)
	if book.Status != StatusApproved || book.RejectionReason != "" {
		t.Fatalf("repeated approval should be idempotent")
	}
}

func TestParseRoleAndStatus(t *testing.T) {
	if role, ok := ParseUserRole(" Admin "); !ok || role != RoleAdmin {
		t.Fatalf("expected admin role, got %q ok=%v", role, ok)
	}
	if _, ok := ParseUserRole("superuser"); ok {
		t.Fatalf("unexpected role accepted")
	}
	if status, ok := ParseBookStatus("REJECTED"); !ok || status != StatusRejected {
		t.Fatalf("expected rejected status, got %q ok=%v", status, ok)
	}
	if _, ok := ParseBookStatus("archived"); ok {
		t.Fatalf("unexpected status accepted")
	}
}
