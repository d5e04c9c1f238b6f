package services

import (
	"testing"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"
)

func rule(ward, booth int64, role uint) models.FormEventAccessibility {
	return models.FormEventAccessibility{
		WardNumberID:  ward,
		BoothNumberID: booth,
		UserRoleID:    role,
		Status:        models.StatusActive,
	}
}

func TestCanAccessWildcardMatchesAnyWard(t *testing.T) {
	profile := UserProfile{
		ID:            1,
		WardNumberID:  uintPtr(7),
		BoothNumberID: uintPtr(3),
		RoleIDs:       []uint{2},
	}
	rules := []models.FormEventAccessibility{rule(models.WildcardID, 3, 2)}

	if !CanAccess(profile, rules) {
		t.Fatal("expected wildcard ward to match any ward")
	}
}

func TestCanAccessBoothMismatchDenied(t *testing.T) {
	profile := UserProfile{
		ID:            1,
		WardNumberID:  uintPtr(5),
		BoothNumberID: uintPtr(12),
		RoleIDs:       []uint{3},
	}
	rules := []models.FormEventAccessibility{rule(5, 14, 3)}

	if CanAccess(profile, rules) {
		t.Fatal("expected booth mismatch to deny access")
	}
}

func TestCanAccessSecondRuleMatches(t *testing.T) {
	profile := UserProfile{
		ID:            1,
		WardNumberID:  uintPtr(5),
		BoothNumberID: uintPtr(12),
		RoleIDs:       []uint{3},
	}
	rules := []models.FormEventAccessibility{
		rule(5, 14, 3),
		rule(5, models.WildcardID, 3),
	}

	if !CanAccess(profile, rules) {
		t.Fatal("expected second rule with wildcard booth to grant access")
	}
}

func TestCanAccessRoleNeverWildcards(t *testing.T) {
	profile := UserProfile{
		ID:            1,
		WardNumberID:  uintPtr(1),
		BoothNumberID: uintPtr(1),
		RoleIDs:       []uint{9},
	}
	rules := []models.FormEventAccessibility{rule(models.WildcardID, models.WildcardID, 2)}

	if CanAccess(profile, rules) {
		t.Fatal("expected role mismatch to deny even under full geographic wildcard")
	}
}

func TestCanAccessFailClosed(t *testing.T) {
	rules := []models.FormEventAccessibility{rule(models.WildcardID, models.WildcardID, 1)}

	cases := []struct {
		name    string
		profile UserProfile
	}{
		{"no ward", UserProfile{BoothNumberID: uintPtr(1), RoleIDs: []uint{1}}},
		{"no booth", UserProfile{WardNumberID: uintPtr(1), RoleIDs: []uint{1}}},
		{"no roles", UserProfile{WardNumberID: uintPtr(1), BoothNumberID: uintPtr(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if CanAccess(tc.profile, rules) {
				t.Fatal("expected incomplete profile to be denied")
			}
		})
	}

	full := UserProfile{WardNumberID: uintPtr(1), BoothNumberID: uintPtr(1), RoleIDs: []uint{1}}
	if CanAccess(full, nil) {
		t.Fatal("expected event with no rules to be inaccessible")
	}
}

func TestCanAccessIgnoresInactiveRules(t *testing.T) {
	profile := UserProfile{
		WardNumberID:  uintPtr(1),
		BoothNumberID: uintPtr(1),
		RoleIDs:       []uint{1},
	}
	inactive := rule(models.WildcardID, models.WildcardID, 1)
	inactive.Status = models.StatusInactive

	if CanAccess(profile, []models.FormEventAccessibility{inactive}) {
		t.Fatal("expected inactive rule to be skipped")
	}
}

func TestValidateAccessibilityPayload(t *testing.T) {
	cases := []struct {
		name    string
		rules   []AccessibilityInput
		wantErr bool
	}{
		{"empty", nil, true},
		{"zero ward", []AccessibilityInput{{WardNumberID: 0, BoothNumberID: 1, UserRoleID: 1}}, true},
		{"negative booth", []AccessibilityInput{{WardNumberID: 1, BoothNumberID: -5, UserRoleID: 1}}, true},
		{"wildcard role", []AccessibilityInput{{WardNumberID: 1, BoothNumberID: 1, UserRoleID: -1}}, true},
		{"wildcards", []AccessibilityInput{{WardNumberID: -1, BoothNumberID: -1, UserRoleID: 2}}, false},
		{"concrete", []AccessibilityInput{{WardNumberID: 3, BoothNumberID: 7, UserRoleID: 2}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAccessibilityPayload(tc.rules)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnsureReferencesExist(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewAccessibilityService(db)

	ok := []AccessibilityInput{
		{WardNumberID: 1, BoothNumberID: models.WildcardID, UserRoleID: 2},
		{WardNumberID: models.WildcardID, BoothNumberID: 2, UserRoleID: 1},
	}
	if err := svc.EnsureReferencesExist(ok); err != nil {
		t.Fatalf("expected seeded references to pass: %v", err)
	}

	bad := []AccessibilityInput{{WardNumberID: 99, BoothNumberID: 1, UserRoleID: 1}}
	err := svc.EnsureReferencesExist(bad)
	if err == nil {
		t.Fatal("expected unknown ward to fail")
	}
	if apperr.StatusOf(err) != 400 {
		t.Fatalf("expected 400, got %d", apperr.StatusOf(err))
	}
}
