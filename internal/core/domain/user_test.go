package domain

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"alice@example.com": "a***@example.com",
		"b@x.io":            "b***@x.io",
		"no-at-sign":        "***",
		"@example.com":      "***",
		"":                  "***",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAdmin.Valid() {
		t.Fatal("expected user and admin to be valid roles")
	}
	if Role("client").Valid() {
		t.Fatal("unexpected valid role: client")
	}
}

func TestSessionClaims_Kinds(t *testing.T) {
	normal := &NormalSession{Subject: Identity{UserID: "u1", Role: RoleAdmin}}
	temp := &ImpersonationSession{Subject: Identity{UserID: "u2", Role: RoleUser}, Admin: OriginalAdmin{UserID: "u1"}}

	if IsTemporary(normal) {
		t.Error("normal session reported as temporary")
	}
	if !IsTemporary(temp) {
		t.Error("impersonation session not reported as temporary")
	}
	if !IsAdminSession(normal) {
		t.Error("admin normal session not reported as admin")
	}
	if IsAdminSession(temp) {
		t.Error("impersonated user session reported as admin")
	}
	if IsAdminSession(nil) {
		t.Error("nil claims reported as admin")
	}
}
