package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/broadband-mesh/al1905/alme"
)

func TestDecodesGetIntfListRequest(t *testing.T) {
	buf, err := alme.Forge(alme.GetIntfListRequest{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{hex.EncodeToString(buf)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "getIntfListRequest") {
		t.Fatalf("expected output to mention the decoded type, got %q", out.String())
	}
}

func TestRejectsInvalidHex(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"not-hex"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for invalid hex input")
	}
}

func TestResponseFlagSelectsResponseRegistry(t *testing.T) {
	buf, err := alme.Forge(alme.GetFwdRulesRequest{})
	if err != nil {
		t.Fatalf("Forge: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--response", hex.EncodeToString(buf)})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error: GetFwdRulesRequest is not registered in the response direction")
	}
}
