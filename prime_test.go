package jbuild_test

import (
	"testing"

	"github.com/reoring/jbuild"
)

func TestFromJSON_ObjectKeepsOrderAndAcceptsSets(t *testing.T) {
	b, err := jbuild.FromJSON([]byte(`{"z":1,"a":{"k":true}}`))
	if err != nil {
		t.Fatalf("from json err=%v", err)
	}
	if err := b.Set("tail", "end"); err != nil {
		t.Fatalf("set err=%v", err)
	}
	want := `{"z":1,"a":{"k":true},"tail":"end"}`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestFromJSON_ListPrimesListMode(t *testing.T) {
	b, err := jbuild.FromJSON([]byte(`[1,2]`))
	if err != nil {
		t.Fatalf("from json err=%v", err)
	}
	if err := b.AppendRaw(jbuild.RawJSON(`3`)); err != nil {
		t.Fatalf("append err=%v", err)
	}
	if got, want := mustSerialize(t, b), `[1,2,3]`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}

	// List mode is fixed by the primed buffer.
	if err := b.Set("x", 1); err == nil {
		t.Fatalf("expected mode conflict on primed list")
	}
}

func TestFromJSON_ScalarRejected(t *testing.T) {
	_, err := jbuild.FromJSON([]byte(`42`))
	if it, ok := jbuild.AsIssue(err); !ok || it.Code != jbuild.CodeParseError {
		t.Fatalf("err=%v, want %s issue", err, jbuild.CodeParseError)
	}
}

func TestFromJSON_Malformed(t *testing.T) {
	_, err := jbuild.FromJSON([]byte(`{"unterminated`))
	if it, ok := jbuild.AsIssue(err); !ok || it.Code != jbuild.CodeParseError {
		t.Fatalf("err=%v, want %s issue", err, jbuild.CodeParseError)
	}
}

func TestFromYAML(t *testing.T) {
	b, err := jbuild.FromYAML([]byte("beta: 2\nalpha: 1\n"))
	if err != nil {
		t.Fatalf("from yaml err=%v", err)
	}
	if got, want := mustSerialize(t, b), `{"beta":2,"alpha":1}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}
