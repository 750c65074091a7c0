// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present", k)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
	if got := Locales(); len(got) != 2 || got[0] != "de" || got[1] != "en" {
		t.Fatalf("unexpected locales %v", got)
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")
	defer Init("en")

	if got := T("tui.login.heading"); got != "Unlock your vault" {
		t.Fatalf("expected 'Unlock your vault', got %q", got)
	}
	if got := T("form.min", "Password", "8"); got != "Password must be at least 8 characters long" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	SetLang("de")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("tui.login.heading"); got != "Tresor entsperren" {
		t.Fatalf("expected German heading, got %q", got)
	}
}

func TestT_FallbacksAndUnknownIDs(t *testing.T) {
	Init("fr")
	defer Init("en")

	if got := T("cli.locked"); got != "Vault locked." {
		t.Fatalf("expected English fallback, got %q", got)
	}
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected message ID back, got %q", got)
	}
}

// Messages used by the UI must resolve in every locale.
func TestLocalesComplete(t *testing.T) {
	ids := []string{
		"field.email", "field.password", "form.required", "form.email", "form.min",
		"errors.not_set_up", "cli.password_prompt", "cli.secret_key", "tui.session.help",
		"tui.setup.secret_key_notice", "tui.copied",
	}
	for _, l := range Locales() {
		Init(l)
		for _, id := range ids {
			if got := T(id); got == id {
				t.Errorf("locale %s is missing %s", l, id)
			}
		}
	}
	Init("en")
}
