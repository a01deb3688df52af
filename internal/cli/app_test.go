package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestApp() (*App, *bytes.Buffer, *int) {
	app := NewApp("1.0.0")
	stderr := &bytes.Buffer{}
	code := -1
	app.Stderr = stderr
	app.ExitFunc = func(c int) { code = c }
	return app, stderr, &code
}

func TestApp_Execute_NoArgs_ReturnsTrueForTUI(t *testing.T) {
	app, _, _ := newTestApp()
	if !app.Execute(nil) {
		t.Error("Execute(nil) should launch the TUI")
	}
}

func TestApp_Execute_UngroupedCommand_Dispatches(t *testing.T) {
	app, _, code := newTestApp()
	var got []string
	app.AddCommand(&Command{
		Name: "root",
		Run: func(args []string) error {
			got = args
			return nil
		},
	})

	if app.Execute([]string{"root", "/code"}) {
		t.Error("Execute with a command should not launch the TUI")
	}
	if len(got) != 1 || got[0] != "/code" {
		t.Errorf("args = %v, want [/code]", got)
	}
	if *code != -1 {
		t.Errorf("exit code = %d, want no exit", *code)
	}
}

func TestApp_Execute_GroupCommand_Dispatches(t *testing.T) {
	app, _, _ := newTestApp()
	g := app.AddGroup("polling", "Turn polling on or off")
	called := false
	g.AddCommand(&Command{Name: "on", Run: func([]string) error { called = true; return nil }})

	app.Execute([]string{"polling", "on"})
	if !called {
		t.Error("group command was not called")
	}
}

func TestApp_Execute_CommandError_ExitsCode1(t *testing.T) {
	app, stderr, code := newTestApp()
	app.AddCommand(&Command{Name: "scan", Run: func([]string) error { return errors.New("no root given") }})

	app.Execute([]string{"scan"})
	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
	if !strings.Contains(stderr.String(), "error: no root given") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestApp_Execute_Help(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"top level", []string{"--help"}, "Usage: gitok [options] [command]"},
		{"group bare", []string{"polling"}, "Usage: gitok polling <command>"},
		{"group help", []string{"polling", "help"}, "on"},
		{"group flag", []string{"polling", "-h"}, "off"},
		{"command flag", []string{"scan", "--help"}, "Usage: gitok scan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stderr, code := newTestApp()
			ran := false
			app.AddCommand(&Command{Name: "scan", Summary: "Scan once", Usage: "Usage: gitok scan [root]", Run: func([]string) error { ran = true; return nil }})
			g := app.AddGroup("polling", "Turn polling on or off")
			g.AddCommand(&Command{Name: "on", Summary: "Start", Run: func([]string) error { ran = true; return nil }})
			g.AddCommand(&Command{Name: "off", Summary: "Stop", Run: func([]string) error { ran = true; return nil }})

			if app.Execute(tt.args) {
				t.Error("help should not launch the TUI")
			}
			if ran {
				t.Error("help should not run a command")
			}
			if *code != -1 {
				t.Errorf("exit code = %d, want no exit", *code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.want)
			}
		})
	}
}

func TestApp_Execute_Unknown_ExitsCode1(t *testing.T) {
	for _, args := range [][]string{{"frobnicate"}, {"polling", "maybe"}} {
		app, _, code := newTestApp()
		app.AddGroup("polling", "Turn polling on or off")
		app.Execute(args)
		if *code != 1 {
			t.Errorf("Execute(%v) exit code = %d, want 1", args, *code)
		}
	}
}

func TestApp_PrintHelp_ListsInRegistrationOrder(t *testing.T) {
	app, _, _ := newTestApp()
	app.AddCommand(&Command{Name: "scan", Summary: "Scan once"})
	app.AddGroup("polling", "Turn polling on or off")
	app.AddCommand(&Command{Name: "version", Summary: "Print version"})

	buf := &bytes.Buffer{}
	app.PrintHelp(buf)
	out := buf.String()

	scan, polling, version := strings.Index(out, "scan"), strings.Index(out, "polling"), strings.Index(out, "version")
	if scan < 0 || polling < scan || version < polling {
		t.Errorf("help order wrong:\n%s", out)
	}
	if !strings.Contains(out, "Launch interactive TUI") {
		t.Error("help should mention the TUI")
	}
}
