package enums

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "citizen", want: RoleCitizen},
		{in: "admin", want: RoleAdmin},
		{in: "super-admin", want: RoleSuperAdmin},
		{in: "superadmin", wantErr: true},
		{in: "Admin", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseRole(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRoleSelfRegistrable(t *testing.T) {
	if !RoleCitizen.SelfRegistrable() || !RoleAdmin.SelfRegistrable() {
		t.Fatal("citizen and admin should be self registrable")
	}
	if RoleSuperAdmin.SelfRegistrable() {
		t.Fatal("super-admin must not be self registrable")
	}
}

func TestComplaintStatusGroups(t *testing.T) {
	for _, s := range ComplaintStatuses() {
		if s.IsOpen() == s.IsClosedOut() {
			t.Fatalf("status %q must be exactly one of open or closed out", s)
		}
	}
	if ComplaintStatus("archived").IsValid() {
		t.Fatal("unknown status must be rejected")
	}
}

func TestCategoriesAreValid(t *testing.T) {
	names := CategoryNames()
	if len(names) != 10 {
		t.Fatalf("expected 10 categories got %d", len(names))
	}
	for _, name := range names {
		if _, err := ParseCategory(name); err != nil {
			t.Fatalf("category %q failed to parse: %v", name, err)
		}
	}
	if Category("Street lighting").IsValid() {
		t.Fatal("category matching is case sensitive")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority("critical"); err != nil || p != PriorityCritical {
		t.Fatalf("unexpected parse result %q %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}
