package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formsync/pkg/orchestrator"
	"github.com/goliatone/go-formsync/pkg/renderers/tui"
)

// defaultsDriver accepts every prompt's default and declines extra rows.
type defaultsDriver struct {
	messages []string
}

func (d *defaultsDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	return cfg.Default, nil
}

func (d *defaultsDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	d.messages = append(d.messages, cfg.Message)
	return false, nil
}

func (d *defaultsDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	d.messages = append(d.messages, cfg.Message)
	return cfg.DefaultIndex, nil
}

func (d *defaultsDriver) MultiSelect(_ context.Context, cfg tui.SelectConfig) ([]int, error) {
	d.messages = append(d.messages, cfg.Message)
	return cfg.Defaults, nil
}

func (d *defaultsDriver) Info(context.Context, string) error { return nil }

var fixtures, _ = filepath.Abs("testdata")

var (
	schemaPath = filepath.Join(fixtures, "bottles.yaml")
	rulesPath  = filepath.Join(fixtures, "extra-rules.yaml")
)

// run executes the command tree in an empty working directory so no user
// config is picked up.
func run(t *testing.T, driver tui.PromptDriver, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	for i, arg := range args {
		args[i] = strings.NewReplacer("$SCHEMA", schemaPath, "$RULES", rulesPath).Replace(arg)
	}

	a := &app{
		viper: viper.New(),
		newDriver: func(io.Writer) tui.PromptDriver {
			return driver
		},
	}
	root := newRootCommand("test", a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestRender_FollowsRules(t *testing.T) {
	out, err := run(t, nil,
		"render", "-s", "$SCHEMA", "-o", "createBottle", "--rules", "$RULES",
		"--set", "bottle=9", "--set", "bottlefield_set-0-field_name=3",
	)
	require.NoError(t, err)

	for _, fragment := range []string{
		`<option value="9" selected>Post</option>`,
		`<option value="3" selected>`,
		`<select id="bottlefield_set-0-embed"`,
		`<option value="true" selected>true</option>`,
		`<option value="false" selected>false</option>`,
	} {
		require.Contains(t, out, fragment)
	}
	// Row 1 only offers options of bottle 9 not chosen elsewhere.
	require.NotContains(t, out, `<option value="1">subject</option>`)
	require.Equal(t, 1, strings.Count(out, `<option value="3"`))
	require.NotContains(t, out, "<html")
}

func TestRender_AppliesSetInFlagOrder(t *testing.T) {
	embedSelect := func(out string) string {
		start := strings.Index(out, `<select id="bottlefield_set-0-embed"`)
		require.GreaterOrEqual(t, start, 0)
		end := strings.Index(out[start:], "</select>")
		require.Greater(t, end, 0)
		return out[start : start+end]
	}

	// The explicit embed value comes last and survives the conditional.
	out, err := run(t, nil,
		"render", "-s", "$SCHEMA", "-o", "createBottle", "--rules", "$RULES",
		"--set", "bottlefield_set-0-field_name=3", "--set", "bottlefield_set-0-embed=false",
	)
	require.NoError(t, err)
	require.Contains(t, embedSelect(out), `<option value="false" selected>`)
	require.NotContains(t, embedSelect(out), `<option value="true" selected>`)

	// Reversed, the conditional runs last and overrides it.
	out, err = run(t, nil,
		"render", "-s", "$SCHEMA", "-o", "createBottle", "--rules", "$RULES",
		"--set", "bottlefield_set-0-embed=false", "--set", "bottlefield_set-0-field_name=3",
	)
	require.NoError(t, err)
	require.Contains(t, embedSelect(out), `<option value="true" selected>`)
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"tags=urgent", "tags=archived", "bottle=9", "tags=", "note=a=b"})
	require.NoError(t, err)
	require.Equal(t, []orchestrator.Assignment{
		{Name: "tags", Values: []string{"urgent", "archived"}},
		{Name: "bottle", Values: []string{"9"}},
		{Name: "tags", Values: []string{""}},
		{Name: "note", Values: []string{"a=b"}},
	}, got)

	got, err = parseAssignments(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = parseAssignments([]string{"=x"})
	require.ErrorContains(t, err, "want name=value")
}

func TestRender_PageToFileWithRows(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "form.html")
	_, err := run(t, nil,
		"render", "-s", "$SCHEMA", "-o", "createBottle",
		"--rows", "bottlefield_set=2", "--page", "--output", outPath,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "<html")
	require.Contains(t, string(data), `name="bottlefield_set-3-field_name"`)
}

func TestRender_Errors(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"no schema":     {args: []string{"render", "-o", "createBottle"}, want: "no schema given"},
		"no operation":  {args: []string{"render", "-s", "$SCHEMA"}, want: "no operation given"},
		"bad set":       {args: []string{"render", "-s", "$SCHEMA", "-o", "createBottle", "--set", "bottle"}, want: "want name=value"},
		"unknown field": {args: []string{"render", "-s", "$SCHEMA", "-o", "createBottle", "--set", "colour=red"}, want: `no control named "colour"`},
		"bad preset":    {args: []string{"render", "-s", "$SCHEMA", "-o", "createBottle", "--preset", "nope"}, want: `unknown preset "nope"`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, nil, tc.args...)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestFill_KeepsPresetValues(t *testing.T) {
	driver := &defaultsDriver{}
	out, err := run(t, driver,
		"fill", "-s", "$SCHEMA", "-o", "createBottle",
		"--set", "bottle=9", "--set", "bottlefield_set-0-field_name=3",
	)
	require.NoError(t, err)
	require.JSONEq(t, `{"bottle":"9","bottlefield_set":[{"field_name":"3"}]}`, out)
	require.Contains(t, driver.messages, "Add another Bottlefield?")
}

func TestRules_MergesFilesAndPresets(t *testing.T) {
	out, err := run(t, nil, "rules", "--rules", "$RULES", "--preset", "bottlefield", "--name", "combined")
	require.NoError(t, err)
	require.Contains(t, out, "name: combined")
	require.Contains(t, out, "master: bottle")
	require.Contains(t, out, "dependent: embed")

	_, err = run(t, nil, "rules")
	require.ErrorContains(t, err, "no rules given")
}

func TestRules_List(t *testing.T) {
	out, err := run(t, nil, "rules", "--list")
	require.NoError(t, err)
	require.Contains(t, out, "bottlefield\t")
	require.Contains(t, out, "taste\t")
}

func TestOperations(t *testing.T) {
	out, err := run(t, nil, "operations", "-s", "$SCHEMA")
	require.NoError(t, err)
	require.Equal(t, "createBottle\ncreateTaste\nget:/health\n", out)
}

func TestConfigFileSuppliesDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "formsync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("schema: "+schemaPath+"\noperation: createBottle\npresets: [bottlefield]\n"), 0o644))

	out, err := run(t, nil, "render", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, `name="bottlefield_set-0-field_name"`)
}

func TestLint(t *testing.T) {
	out, err := run(t, nil, "lint", "$SCHEMA")
	require.NoError(t, err)
	require.Empty(t, out)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	data, err := os.ReadFile(schemaPath)
	require.NoError(t, err)
	broken := strings.Replace(string(data), "x-formsync-widget: autocomplete", "x-formsync-widget: radio", 1)
	require.NoError(t, os.WriteFile(bad, []byte(broken), 0o644))

	out, err = run(t, nil, "lint", bad)
	require.ErrorIs(t, err, errViolations)
	require.Contains(t, out, `unknown widget "radio"`)
}
