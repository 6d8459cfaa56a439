package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pup/internal/client/models"
)

// getMultiline is swapped in tests.
var getMultiline = GetMultiline

var editableFields = []string{
	"name", "age", "location", "bio", "domain", "archetype", "modality", "narrative",
	"interests", "smoking", "drinking", "diet", "activity",
}

// buildPatch turns "edit <field> <value>" into a patch. Lifestyle fields are
// merged into current since the API replaces the lifestyle as a whole.
func buildPatch(field, value string, current *models.Profile) (models.ProfilePatch, error) {
	var p models.ProfilePatch

	switch field {
	case "name":
		p.DisplayName = &value
	case "age":
		n := 0
		if value != "" {
			var err error
			if n, err = strconv.Atoi(value); err != nil {
				return p, fmt.Errorf("age must be a number")
			}
		}
		p.Age = &n
	case "location":
		p.Location = &value
	case "bio":
		p.Bio = &value
	case "domain":
		p.PurposeDomain = &value
	case "archetype":
		p.PurposeArchetype = &value
	case "modality":
		p.PurposeModality = &value
	case "narrative":
		p.PurposeNarrative = &value
	case "interests":
		items := []string{}
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		p.Interests = &items
	case "smoking", "drinking", "diet", "activity":
		var ls models.Lifestyle
		if current != nil {
			ls = current.Lifestyle
		}
		switch field {
		case "smoking":
			ls.Smoking = value
		case "drinking":
			ls.Drinking = value
		case "diet":
			ls.Diet = value
		case "activity":
			ls.Activity = value
		}
		p.Lifestyle = &ls
	default:
		return p, fmt.Errorf("unknown field %q, one of: %s", field, strings.Join(editableFields, ", "))
	}
	return p, nil
}

func (a *App) Profile(ctx context.Context) error {
	v, err := a.profiles.Get(ctx)
	if err != nil {
		return a.report(err)
	}
	a.printProfile(v)
	return nil
}

// Edit changes one profile field. Without a value, bio and narrative are
// read as multiple lines.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: edit <field> [value]; fields:", strings.Join(editableFields, ", "))
		return nil
	}
	field, value := args[0], strings.Join(args[1:], " ")

	if value == "" && (field == "bio" || field == "narrative") {
		text, err := getMultiline(a.reader, "Enter "+field, a.out)
		if err != nil {
			return a.reportPlain(err)
		}
		value = text
	}

	var current *models.Profile
	switch field {
	case "smoking", "drinking", "diet", "activity":
		v, err := a.profiles.Get(ctx)
		if err != nil {
			return a.report(err)
		}
		current = v.Profile
	}

	patch, err := buildPatch(field, value, current)
	if err != nil {
		return a.reportPlain(err)
	}

	v, err := a.profiles.Update(ctx, patch)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Saved. Profile %d%% complete.\n", v.Completion)
	return nil
}

func (a *App) Photo(ctx context.Context, path string) error {
	v, err := a.profiles.UploadPhoto(ctx, path)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Uploaded. You have %d photo(s).\n", len(v.Profile.Photos))
	return nil
}

func (a *App) printProfile(v *models.ProfileView) {
	p := v.Profile
	if p == nil {
		fmt.Fprintln(a.out, "No profile yet.")
		return
	}

	fmt.Fprintf(a.out, "%s (%d%% complete)\n", p.DisplayName, v.Completion)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(a.out, "  %-10s %s\n", label+":", value)
		}
	}
	if p.Age > 0 {
		row("Age", strconv.Itoa(p.Age))
	}
	row("Location", p.Location)
	row("Bio", p.Bio)
	row("Purpose", strings.Trim(strings.Join([]string{p.PurposeDomain, p.PurposeArchetype, p.PurposeModality}, " / "), " /"))
	row("Narrative", p.PurposeNarrative)
	row("Interests", strings.Join(p.Interests, ", "))
	row("Photos", strings.Join(v.PhotoURLs, "\n             "))
	if len(v.MissingFields) > 0 {
		fmt.Fprintln(a.out, "  Missing:  ", strings.Join(v.MissingFields, ", "))
	}
}
