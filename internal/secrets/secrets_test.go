package secrets

import "testing"

func TestRoundTripAllVersions(t *testing.T) {
	SetInstallKey("test-install-key")

	for _, version := range []int{VersionPlain, VersionShared, VersionPrivate} {
		enc, err := Encrypt("s3cret value", version)
		if err != nil {
			t.Fatalf("Encrypt v%d: %v", version, err)
		}
		dec, err := Decrypt(enc, version)
		if err != nil {
			t.Fatalf("Decrypt v%d: %v", version, err)
		}
		if dec != "s3cret value" {
			t.Fatalf("v%d round trip = %q", version, dec)
		}
	}
}

func TestPlainIsIdentity(t *testing.T) {
	enc, err := Encrypt("visible", VersionPlain)
	if err != nil {
		t.Fatal(err)
	}
	if enc != "visible" {
		t.Fatalf("version 0 should store plaintext, got %q", enc)
	}
}

func TestSharedIsObfuscated(t *testing.T) {
	enc, err := Encrypt("visible", VersionShared)
	if err != nil {
		t.Fatal(err)
	}
	if enc == "visible" {
		t.Fatal("version 1 should not store plaintext")
	}
}

func TestPrivateRequiresInstallKey(t *testing.T) {
	SetInstallKey("")
	if _, err := Encrypt("x", VersionPrivate); err == nil {
		t.Fatal("Encrypt v2 without install key should fail")
	}
	if _, err := Decrypt("eA==", VersionPrivate); err == nil {
		t.Fatal("Decrypt v2 without install key should fail")
	}
}

func TestUnknownVersion(t *testing.T) {
	if _, err := Encrypt("x", 99); err == nil {
		t.Fatal("unknown version should fail")
	}
	if _, err := Decrypt("x", 99); err == nil {
		t.Fatal("unknown version should fail")
	}
}

func TestNewInstallKeyIsFresh(t *testing.T) {
	a, b := NewInstallKey(), NewInstallKey()
	if a == "" || a == b {
		t.Fatalf("install keys should be unique and non-empty: %q %q", a, b)
	}
}
