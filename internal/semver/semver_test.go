package semver

import "testing"

func TestSatisfies(t *testing.T) {
	c, err := ParseConstraint("^18.2.0")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}

	for raw, want := range map[string]bool{
		"18.2.0":  true,
		"18.3.1":  true,
		"v18.2.1": true,
		"19.0.0":  false,
		"17.0.2":  false,
	} {
		v, err := ParseVersion(raw)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", raw, err)
		}
		if got := Satisfies(v, c); got != want {
			t.Fatalf("Satisfies(%s, ^18.2.0) = %v, want %v", raw, got, want)
		}
	}
}

func TestIsVersionRejectsPartialVersions(t *testing.T) {
	if IsVersion("18.2") {
		t.Fatalf("expected 18.2 to be rejected as a version")
	}
	if !IsVersion("18.2.0-rc.1") {
		t.Fatalf("expected prerelease version to be accepted")
	}
}

func TestIsConstraint(t *testing.T) {
	for _, raw := range []string{"^1.0.0", ">=1.2.0 <2.0.0", "~4.17 || ^5.0.0", "*"} {
		if !IsConstraint(raw) {
			t.Fatalf("expected %q to be a valid constraint", raw)
		}
	}
	if IsConstraint("not-a-range") {
		t.Fatalf("expected not-a-range to be rejected")
	}
}

func TestSatisfiesZeroValues(t *testing.T) {
	if Satisfies(Version{}, Constraint{}) {
		t.Fatalf("zero values must not satisfy")
	}
}
