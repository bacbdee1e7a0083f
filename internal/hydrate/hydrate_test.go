package hydrate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_cards.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[card](buildOptions(tc)...)

			result, err := decoder.Decode(Context{Source: tc.Source, Key: tc.Key}, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded card mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestRequireKeysReturnsTypedError(t *testing.T) {
	decoder := NewDecoder[card](WithPreHook[card](RequireKeys("title", "size")))

	_, err := decoder.Decode(Context{Source: "test"}, map[string]any{"title": nil})
	var missing *MissingKeysError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingKeysError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Keys, []string{"size", "title"}) {
		t.Fatalf("expected null title reported missing, got %v", missing.Keys)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"heading": "Engineer"}
	decoder := NewDecoder[card](WithPreHook[card](RenameKey("heading", "title")))

	if _, err := decoder.Decode(Context{}, input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := input["heading"]; !ok {
		t.Fatalf("expected caller payload untouched, got %v", input)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	_, err := NewDecoder[card]().Decode(Context{Key: "k"}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestCustomDecoder(t *testing.T) {
	decoder := NewDecoder[card](WithCustomDecoder[card](func(_ Context, payload map[string]any) (card, error) {
		title, _ := payload["name"].(string)
		return card{Title: strings.ToUpper(title)}, nil
	}))

	got, err := decoder.Decode(Context{}, map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "ADA" {
		t.Fatalf("expected custom decoder output, got %+v", got)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[card] {
	var options []DecoderOption[card]
	for _, name := range tc.Options {
		switch name {
		case "use_number":
			options = append(options, WithUseNumber[card]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[card]())
		}
	}
	for _, name := range tc.PreHooks {
		switch name {
		case "rename_heading":
			options = append(options, WithPreHook[card](RenameKey("heading", "title")))
		case "require_title_size":
			options = append(options, WithPreHook[card](RequireKeys("title", "size")))
		}
	}
	for _, name := range tc.PostHooks {
		switch name {
		case "default_tag":
			options = append(options, WithPostHook[card](defaultTagPostHook))
		}
	}
	return options
}

func defaultTagPostHook(_ Context, value *card) error {
	if value == nil {
		return errors.New("card is nil")
	}
	if len(value.Tags) == 0 {
		value.Tags = []string{"untagged"}
	}
	return nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string         `json:"name"`
	Source    string         `json:"source"`
	Key       string         `json:"key"`
	Input     map[string]any `json:"input"`
	Expect    card           `json:"expect"`
	ExpectErr string         `json:"expectErr"`
	PreHooks  []string       `json:"preHooks"`
	PostHooks []string       `json:"postHooks"`
	Options   []string       `json:"options"`
}

type card struct {
	Title string   `json:"title"`
	Size  int      `json:"size"`
	Tags  []string `json:"tags"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
