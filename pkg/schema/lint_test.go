package schema

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const lintFixture = `
openapi: 3.0.3
info:
  title: Lint
  version: "1.0"
paths:
  /bottles:
    post:
      operationId: createBottle
      x-formsync-rules:
        masters:
          - master: bottle
      x-formsync-widget: select
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                bottle:
                  type: string
                  x-formsync-widget: radio
                  x-formsync-rows: 2
                field_name:
                  type: string
                  x-formsync-endpoint:
                    method: GET
                  x-formsync-order: first
                  x-formsync-colour: red
                rows:
                  type: array
                  x-formsync-rows: 1
                  x-formsync-prefix: taste
                  items:
                    type: object
                    properties:
                      title:
                        type: string
                        x-formsync-labels: [a, b]
      responses:
        "201":
          description: Created
`

func TestLint_ReportsMalformedExtensions(t *testing.T) {
	got, err := Lint(context.Background(), []byte(lintFixture))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}

	locations := make([]string, 0, len(got))
	for _, v := range got {
		locations = append(locations, v.Location)
	}
	want := []string{
		"operation > createBottle",
		"operation > createBottle > requestBody > properties.bottle > x-formsync-rows",
		"operation > createBottle > requestBody > properties.bottle > x-formsync-widget",
		"operation > createBottle > requestBody > properties.field_name",
		"operation > createBottle > requestBody > properties.field_name > x-formsync-endpoint",
		"operation > createBottle > requestBody > properties.field_name > x-formsync-order",
		"operation > createBottle > requestBody > properties.rows > items > properties.title > x-formsync-labels",
		"operation > createBottle > x-formsync-rules",
	}
	if diff := cmp.Diff(want, locations); diff != "" {
		t.Fatalf("violation locations mismatch (-want +got):\n%s\n%v", diff, got)
	}
	if got[0].Message == "" || got[2].Message != `unknown widget "radio"` {
		t.Fatalf("unexpected messages: %v", got)
	}
}

func TestLint_CleanFixture(t *testing.T) {
	got, err := Lint(context.Background(), readFixture(t))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}
