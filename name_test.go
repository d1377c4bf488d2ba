package aef

import (
	"strings"
	"testing"
)

func TestContainerNameDeterministic(t *testing.T) {
	master := make([]byte, masterKeyLen)
	for i := range master {
		master[i] = byte(i)
	}
	nonceBase := make([]byte, nonceBaseLen)
	for i := range nonceBase {
		nonceBase[i] = byte(i + 50)
	}
	fnCT := []byte("encrypted-filename-bytes")

	a, err := containerName(master, nonceBase, fnCT)
	if err != nil {
		t.Fatalf("containerName: %v", err)
	}
	b, err := containerName(master, nonceBase, fnCT)
	if err != nil {
		t.Fatalf("containerName: %v", err)
	}
	if a != b {
		t.Errorf("containerName not deterministic: %q != %q", a, b)
	}
	if !strings.HasSuffix(a, containerExt) {
		t.Errorf("containerName %q missing %q suffix", a, containerExt)
	}
}

func TestContainerNameVariesWithInputs(t *testing.T) {
	master := make([]byte, masterKeyLen)
	nonceBase := make([]byte, nonceBaseLen)
	fnCT := []byte("same-fn-ct")

	base, err := containerName(master, nonceBase, fnCT)
	if err != nil {
		t.Fatalf("containerName: %v", err)
	}

	master2 := make([]byte, masterKeyLen)
	master2[0] = 1
	withDifferentMaster, err := containerName(master2, nonceBase, fnCT)
	if err != nil {
		t.Fatalf("containerName: %v", err)
	}
	if base == withDifferentMaster {
		t.Error("expected different container name for different master key")
	}

	fnCT2 := []byte("different-fn-ct")
	withDifferentFn, err := containerName(master, nonceBase, fnCT2)
	if err != nil {
		t.Fatalf("containerName: %v", err)
	}
	if base == withDifferentFn {
		t.Error("expected different container name for different fn_ct")
	}
}

func TestContainerNameRejectsBadMaster(t *testing.T) {
	if _, err := containerName(make([]byte, 10), make([]byte, nonceBaseLen), []byte("x")); err == nil {
		t.Fatal("expected error for wrong-length master key")
	}
}
