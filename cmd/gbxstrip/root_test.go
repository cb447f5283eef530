package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gbxstrip/internal/pipeline"
)

func TestMissingArgumentsIsUsageError(t *testing.T) {
	cmd, _ := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"only-input.Map.Gbx"})

	err := cmd.Execute()
	if !errors.Is(err, pipeline.ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
	if pipeline.ExitCode(err) != pipeline.ExitUsage {
		t.Fatalf("exit code = %d", pipeline.ExitCode(err))
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	cmd, _ := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"in.Map.Gbx", "out.Map.Gbx", "--frobnicate"})

	err := cmd.Execute()
	if !errors.Is(err, pipeline.ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
}

func TestHelpPrintsUsageText(t *testing.T) {
	cmd, state := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !state.helpRequested {
		t.Fatal("help was not flagged")
	}
	text := out.String()
	for _, want := range []string{"Usage: gbxstrip", "--return-map", "--return-ghost", "--return-replay", "TM_PROCESSED_ROOT", "GBXLZO_PATH"} {
		if !strings.Contains(text, want) {
			t.Fatalf("usage text missing %q:\n%s", want, text)
		}
	}
}

func TestPrintReportPlain(t *testing.T) {
	report := &pipeline.Report{
		ArtifactID: "20260825-130405-deadbeef",
		Removed:    true,
		GhostUID:   "ABC123",
		MetaKey:    "LibMapType_Extra",
		OutputPath: "/out/cleaned.Map.Gbx",
		MapLogPath: "/logs/maps/track.Map.Gbx",
		ReplayReturn: pipeline.ReturnResult{
			Requested: true,
			Dir:       "./out",
			Notice:    pipeline.ReplayUnavailableNotice,
		},
	}
	out := &bytes.Buffer{}
	if err := printReport(out, report, false, false); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	text := out.String()
	for _, want := range []string{"20260825-130405-deadbeef", "ABC123", "unavailable", "/logs/maps/track.Map.Gbx"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "│") {
		t.Fatalf("plain output must not render a table:\n%s", text)
	}
}

func TestPrintReportTableOnTerminal(t *testing.T) {
	report := &pipeline.Report{
		ArtifactID: "20260825-130405-deadbeef",
		Removed:    false,
		MetaKey:    "LibMapType_Extra",
		OutputPath: "/out/cleaned.Map.Gbx",
		MapLogPath: "/logs/maps/track.Map.Gbx",
	}
	out := &bytes.Buffer{}
	if err := printReport(out, report, false, true); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Field", "Value", "│", "20260825-130405-deadbeef"} {
		if !strings.Contains(text, want) {
			t.Fatalf("table output missing %q:\n%s", want, text)
		}
	}
}

func TestPrintReportJSON(t *testing.T) {
	report := &pipeline.Report{
		ArtifactID: "id",
		Removed:    false,
		MetaKey:    "LibMapType_Extra",
		OutputPath: "/out/cleaned.Map.Gbx",
		MapLogPath: "/logs/maps/track.Map.Gbx",
	}
	out := &bytes.Buffer{}
	if err := printReport(out, report, true, false); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v\n%s", err, out.String())
	}
	if decoded["artifact_id"] != "id" || decoded["removed"] != false {
		t.Fatalf("decoded report = %+v", decoded)
	}
}
