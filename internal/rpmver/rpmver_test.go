package rpmver

import "testing"

func TestExtractStructuredFilename(t *testing.T) {
	v := Extract("ripgrep-14.1.0-1.x86_64.rpm")
	if v.IsOpaque() {
		t.Fatalf("expected structured parse, got opaque %q", v.Opaque)
	}
	if v.Name != "ripgrep" || v.Version != "14.1.0" || v.Release != "1" || v.Arch != "x86_64" {
		t.Fatalf("unexpected parse: %+v", v)
	}
	if v.Key() != "14.1.0-1" {
		t.Fatalf("unexpected key %q", v.Key())
	}
}

func TestExtractHyphenatedName(t *testing.T) {
	v := Extract("git-delta-0.18.2-1.aarch64.rpm")
	if v.Name != "git-delta" || v.Version != "0.18.2" || v.Release != "1" {
		t.Fatalf("unexpected parse: %+v", v)
	}
}

func TestExtractMissingRelease(t *testing.T) {
	v := Extract("tool-2.0.noarch.rpm")
	if v.IsOpaque() {
		t.Fatalf("expected structured parse, got opaque")
	}
	if v.Version != "2.0" || v.Release != "" || v.Arch != "noarch" {
		t.Fatalf("unexpected parse: %+v", v)
	}
}

func TestExtractMalformedFallsBackToOpaque(t *testing.T) {
	for _, name := range []string{"weird.rpm", "no-extension", "", ".rpm"} {
		v := Extract(name)
		if !v.IsOpaque() {
			t.Fatalf("expected opaque key for %q, got %+v", name, v)
		}
		// Must never panic and Key must be usable for ordering.
		_ = v.Key()
	}
}

func TestCompareNumericSegments(t *testing.T) {
	older := Extract("app-9.2.0-1.x86_64.rpm")
	newer := Extract("app-10.0.0-1.x86_64.rpm")
	if Compare(older, newer) >= 0 {
		t.Fatal("9.2.0 should sort before 10.0.0")
	}
	if Compare(newer, older) <= 0 {
		t.Fatal("10.0.0 should sort after 9.2.0")
	}
}

func TestCompareReleaseBreaksTie(t *testing.T) {
	r1 := Extract("app-1.0.0-1.x86_64.rpm")
	r2 := Extract("app-1.0.0-2.x86_64.rpm")
	if Compare(r1, r2) >= 0 {
		t.Fatal("release 1 should sort before release 2")
	}
}

func TestCompareMissingReleaseSortsFirst(t *testing.T) {
	noRel := Extract("app-1.0.x86_64.rpm")
	withRel := Extract("app-1.0-1.x86_64.rpm")
	if noRel.Release != "" {
		t.Fatalf("test setup: expected empty release, got %q", noRel.Release)
	}
	if Compare(noRel, withRel) >= 0 {
		t.Fatal("missing release must sort before any present release")
	}
}

func TestCompareEqual(t *testing.T) {
	a := Extract("app-1.0.0-1.x86_64.rpm")
	b := Extract("app-1.0.0-1.aarch64.rpm")
	if Compare(a, b) != 0 {
		t.Fatal("architecture variants must compare equal")
	}
	if a.Key() != b.Key() {
		t.Fatalf("architecture variants must share a key: %q vs %q", a.Key(), b.Key())
	}
}

func TestCompareOpaqueIsLexicalAndTotal(t *testing.T) {
	a := Extract("alpha.rpm")
	b := Extract("beta.rpm")
	if Compare(a, b) >= 0 {
		t.Fatal("opaque keys must order lexically")
	}
	structured := Extract("app-1.0.0-1.x86_64.rpm")
	if Compare(a, structured) != -Compare(structured, a) {
		t.Fatal("mixed opaque/structured comparison must be antisymmetric")
	}
	if Compare(a, structured) >= 0 {
		t.Fatal("opaque keys must sort before structured versions")
	}
}

func TestCompareMixedKeysStayTransitive(t *testing.T) {
	// Lexically "5..." sits between "app-10..." and "app-9...", while
	// rpmvercmp puts 10.0 above 9.0. The order must not flip depending on
	// which pair gets compared.
	v10 := Extract("app-10.0-1.x86_64.rpm")
	v9 := Extract("app-9.0-1.x86_64.rpm")
	opaque := Extract("5.x86_64.rpm")
	if !opaque.IsOpaque() {
		t.Fatalf("test setup: %+v should be opaque", opaque)
	}

	if Compare(v10, v9) <= 0 {
		t.Fatal("10.0 must sort above 9.0")
	}
	if Compare(opaque, v9) >= 0 || Compare(opaque, v10) >= 0 {
		t.Fatal("opaque key must sort below both structured versions")
	}
}

func TestDetectArch(t *testing.T) {
	cases := map[string]string{
		"app-1.0-1.x86_64.rpm":  "x86_64",
		"app-1.0-1.amd64.rpm":   "x86_64",
		"app_1.0_arm64.rpm":     "aarch64",
		"app-1.0-1.aarch64.rpm": "aarch64",
		"app-1.0-1.noarch.rpm":  "noarch",
		"app-1.0-1.armv7hl.rpm": "armv7hl",
		"app-1.0-1.i686.rpm":    "i686",
		"app-1.0-1.mystery.rpm": "",
	}
	for filename, want := range cases {
		if got := DetectArch(filename); got != want {
			t.Errorf("DetectArch(%q) = %q, want %q", filename, got, want)
		}
	}
}

func TestIsSourcePackage(t *testing.T) {
	if !IsSourcePackage("app-1.0-1.src.rpm") {
		t.Fatal("src.rpm must be recognized as source")
	}
	if IsSourcePackage("app-1.0-1.x86_64.rpm") {
		t.Fatal("binary rpm flagged as source")
	}
}
